package graphapi

import "errors"

var (
	ErrGraphNotFound     = errors.New("graph not found")
	ErrNodeNotFound      = errors.New("node not found")
	ErrEdgeNotFound      = errors.New("edge not found")
	ErrDuplicateNode     = errors.New("duplicate node id")
	ErrUnknownNodeType   = errors.New("unknown node type")
	ErrInvalidConnection = errors.New("invalid connection")
	ErrNotGenerateNode   = errors.New("node is not a generate node")
	ErrWrongNodeType     = errors.New("operation not supported by node type")
	ErrInvalidDocument   = errors.New("invalid graph document")

	// validation outcomes of the input resolver; both stop a generation before
	// any request is made
	ErrNoImages = errors.New("No images connected to the generate node")
	ErrNoPrompt = errors.New("No prompt connected to the generate node")

	ErrNotAnImage      = errors.New("file is not an image")
	ErrInvalidImageURL = errors.New("image url must start with http")
)
