package graphapi

import (
	"strings"
)

// Inputs are the values wired into a generate node
type Inputs struct {
	Prompt string
	Images []string
}

// ResolveInputs collects the images and prompt text feeding a generate node.
//
// Images are taken, in edge order, from every image input node connected on
// the "images" handle that holds an image. Prompt text is the trimmed text of
// every prompt node connected on the "prompt" handle, blanks skipped, joined
// with single spaces in edge order. Nothing is de-duplicated.
//
// ErrNoImages is returned when no image resolves, then ErrNoPrompt when the
// joined prompt is blank.
func ResolveInputs(g *Graph, generateID string) (*Inputs, error) {
	gen := g.GetNodeById(generateID)
	if gen == nil {
		return nil, ErrNodeNotFound
	}
	if !gen.AcceptsGenerate() {
		return nil, ErrNotGenerateNode
	}

	retv := &Inputs{Images: make([]string, 0)}
	for _, e := range g.IncomingEdges(generateID, ImagesHandle) {
		src := g.GetNodeById(e.Source)
		if src != nil && src.AcceptsImage() && src.Data.Image != "" {
			retv.Images = append(retv.Images, src.Data.Image)
		}
	}

	prompts := make([]string, 0)
	for _, e := range g.IncomingEdges(generateID, PromptHandle) {
		src := g.GetNodeById(e.Source)
		if src == nil || !src.AcceptsPrompt() {
			continue
		}
		if p := strings.TrimSpace(src.Data.Prompt); p != "" {
			prompts = append(prompts, p)
		}
	}
	retv.Prompt = strings.Join(prompts, " ")

	if len(retv.Images) == 0 {
		return nil, ErrNoImages
	}
	if strings.TrimSpace(retv.Prompt) == "" {
		return nil, ErrNoPrompt
	}
	return retv, nil
}
