// Nodegen is a Go backend for node-based image generation. A small graph of
// image input, prompt, generate and output nodes is edited through an owned
// graph store; triggering a generate node collects the images and prompt text
// wired into it, calls a multimodal chat-completion endpoint, and routes the
// returned images into every output node connected downstream.
package nodegen
