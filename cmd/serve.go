package cmd

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mermdv/corrector"
	"mermdv/generator"
	"mermdv/loader"
	"mermdv/validator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation and conversion API over HTTP",
	Long: `Serve the diagram pipeline as a small HTTP API, for editors and
front-ends that validate while the user types.

Endpoints:
  GET  /api/health     liveness probe
  POST /api/validate   {"text": "..."}           -> validation result
  POST /api/fix        {"text": "...", "id": ""} -> corrected text
  POST /api/convert    {"text": "...", "prefix": "cto"} -> payloads

The API is stateless and fully offline; nothing touches Dataverse.

Examples:
  mermdv serve
  mermdv serve --port 9090`,
	Run: func(cmd *cobra.Command, args []string) {
		port := viper.GetString("serve.port")
		if port == "" {
			port = "8080"
		}

		fmt.Printf("🚀 Serving mermdv API on http://localhost:%s\n", port)
		fmt.Println("Press Ctrl+C to stop the server")

		if err := newRouter().Run(":" + port); err != nil {
			fmt.Printf("❌ Server failed: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "8080", "Port to run the API server on")
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
}

type diagramRequest struct {
	Text   string `json:"text" binding:"required"`
	ID     string `json:"id"`
	Prefix string `json:"prefix"`
}

func newRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.POST("/validate", handleValidate)
		api.POST("/fix", handleFix)
		api.POST("/convert", handleConvert)
	}
	return router
}

func handleValidate(c *gin.Context) {
	var req diagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	warnings := validator.Validate(loader.ParseDiagram(req.Text))
	c.JSON(http.StatusOK, validator.NewResult(warnings))
}

func handleFix(c *gin.Context) {
	var req diagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	warnings := validator.Validate(loader.ParseDiagram(req.Text))
	var result corrector.Result
	if req.ID != "" {
		result = corrector.FixOne(req.Text, req.ID, warnings)
	} else {
		result = corrector.FixAll(req.Text, warnings)
	}

	c.JSON(http.StatusOK, gin.H{
		"text":     result.Text,
		"resolved": result.Resolved,
		"warnings": validator.MarkFixed(warnings, result.Resolved),
	})
}

func handleConvert(c *gin.Context) {
	var req diagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Prefix == "" {
		req.Prefix = "new"
	}

	d := loader.ParseDiagram(req.Text)
	warnings := validator.Validate(d)
	if !validator.NewResult(warnings).Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "diagram has validation errors",
			"warnings": warnings,
		})
		return
	}

	artifacts, err := generator.New(req.Prefix, nil).Generate(d)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, artifacts)
}
