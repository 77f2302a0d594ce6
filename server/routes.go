package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/richinsley/nodegen/graphapi"
)

type imageBody struct {
	Image string `json:"image"`
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

type generateBody struct {
	APIKey string `json:"api_key"`
}

func (s *Server) routes() {
	app := s.app

	// ── Graphs ────────────────────────────────────────────────────────
	app.Post("/graphs", s.createGraph)
	app.Get("/graphs/:id", s.getGraph)
	app.Delete("/graphs/:id", s.deleteGraph)
	app.Post("/graphs/:id/starter", s.createStarter)

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/graphs/:id/nodes", s.addNode)
	app.Get("/graphs/:id/nodes/:nodeID", s.getNode)
	app.Delete("/graphs/:id/nodes/:nodeID", s.deleteNode)
	app.Put("/graphs/:id/nodes/:nodeID/image", s.setImage)
	app.Put("/graphs/:id/nodes/:nodeID/prompt", s.setPrompt)
	app.Post("/graphs/:id/nodes/:nodeID/generate", s.generate)

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/graphs/:id/edges", s.connect)
	app.Delete("/graphs/:id/edges/:edgeID", s.disconnect)
}

func (s *Server) createGraph(c fiber.Ctx) error {
	g, err := graphapi.NewGraphFromJsonReader(bytes.NewReader(c.Body()))
	if err != nil {
		return s.fail(c, err)
	}
	stored, err := s.canvas.CreateGraph(c.Context(), g)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(stored)
}

func (s *Server) getGraph(c fiber.Ctx) error {
	g, err := s.canvas.GetGraph(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(g)
}

func (s *Server) deleteGraph(c fiber.Ctx) error {
	if err := s.canvas.DeleteGraph(c.Context(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) createStarter(c fiber.Ctx) error {
	stored, err := s.canvas.CreateGraph(c.Context(), graphapi.NewStarterGraph(c.Params("id")))
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(stored)
}

func (s *Server) addNode(c fiber.Ctx) error {
	var node graphapi.Node
	if err := c.Bind().JSON(&node); err != nil {
		return s.fail(c, errInvalidBody)
	}
	stored, err := s.canvas.AddNode(c.Context(), c.Params("id"), &node)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(stored)
}

func (s *Server) getNode(c fiber.Ctx) error {
	n, err := s.canvas.Store().GetNode(c.Context(), c.Params("id"), c.Params("nodeID"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(n)
}

func (s *Server) deleteNode(c fiber.Ctx) error {
	if err := s.canvas.DeleteNode(c.Context(), c.Params("id"), c.Params("nodeID")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// setImage takes either a JSON {"image": ...} body holding a URL or data
// reference, or a multipart upload in the "file" field.
func (s *Server) setImage(c fiber.Ctx) error {
	var ref string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return s.fail(c, errInvalidBody)
		}
		f, err := fh.Open()
		if err != nil {
			return s.fail(c, err)
		}
		defer f.Close()
		if ref, err = graphapi.ImageFromReader(f, fh.Header.Get(fiber.HeaderContentType)); err != nil {
			return s.fail(c, err)
		}
	} else {
		var body imageBody
		if err := c.Bind().JSON(&body); err != nil {
			return s.fail(c, errInvalidBody)
		}
		ref = body.Image
	}

	n, err := s.canvas.SetImage(c.Context(), c.Params("id"), c.Params("nodeID"), ref)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(n)
}

func (s *Server) setPrompt(c fiber.Ctx) error {
	var body promptBody
	if err := c.Bind().JSON(&body); err != nil {
		return s.fail(c, errInvalidBody)
	}
	n, err := s.canvas.SetPrompt(c.Context(), c.Params("id"), c.Params("nodeID"), body.Prompt)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(n)
}

// generate runs a generation with the caller's API key, taken from the
// X-API-Key header or an {"api_key": ...} body. The key is used for this one
// call and never stored.
func (s *Server) generate(c fiber.Ctx) error {
	apiKey := c.Get("X-API-Key")
	if apiKey == "" && len(c.Body()) > 0 {
		var body generateBody
		if err := c.Bind().JSON(&body); err != nil {
			return s.fail(c, errInvalidBody)
		}
		apiKey = body.APIKey
	}
	result, err := s.canvas.Generate(c.Context(), c.Params("id"), c.Params("nodeID"), apiKey)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(result)
}

func (s *Server) connect(c fiber.Ctx) error {
	var edge graphapi.Edge
	if err := c.Bind().JSON(&edge); err != nil {
		return s.fail(c, errInvalidBody)
	}
	id, err := s.canvas.Connect(c.Context(), c.Params("id"), &edge)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) disconnect(c fiber.Ctx) error {
	if err := s.canvas.Disconnect(c.Context(), c.Params("id"), c.Params("edgeID")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
