package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tordrt/schemaconv"
)

type schemaRequest struct {
	Schema string `json:"schema"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type convertResponse struct {
	Output string            `json:"output"`
	From   schemaconv.Format `json:"from"`
	To     schemaconv.Format `json:"to"`
}

type parseResponse struct {
	Format schemaconv.Format  `json:"format"`
	Models []schemaconv.Model `json:"models"`
}

func (s *Server) formats(c *gin.Context) {
	c.JSON(http.StatusOK, schemaconv.Formats())
}

func (s *Server) detect(c *gin.Context) {
	var req schemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"format": schemaconv.DetectFormat(req.Schema)})
}

func (s *Server) convert(c *gin.Context) {
	var req schemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	from, ok := sourceFormat(c, req)
	if !ok {
		return
	}
	to, err := schemaconv.ParseFormat(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := schemaconv.ConvertWithOptions(req.Schema, from, to, s.opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convertResponse{Output: out, From: from, To: to})
}

func (s *Server) parse(c *gin.Context) {
	var req schemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	from, ok := sourceFormat(c, req)
	if !ok {
		return
	}
	models, err := schemaconv.Parse(req.Schema, from)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, parseResponse{Format: from, Models: models})
}

// sourceFormat validates the requested source format, detecting it when
// omitted. It writes the error response itself and reports false on failure.
func sourceFormat(c *gin.Context, req schemaRequest) (schemaconv.Format, bool) {
	if req.From == "" {
		from := schemaconv.DetectFormat(req.Schema)
		if from == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not detect the source format; set \"from\""})
			return "", false
		}
		return from, true
	}

	from, err := schemaconv.ParseFormat(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return from, true
}
