package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"querypilot/internal/apis/dtos"
	"querypilot/internal/services"
)

type QueryHandler struct {
	queryService services.QueryService
}

func NewQueryHandler(queryService services.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// @Summary Process a natural-language query
// @Description Generate SQL for a question and execute it against the named database
// @Accept json
// @Produce json
// @Param processQueryRequest body dtos.ProcessQueryRequest true "Process query request"
// @Success 200 {object} dtos.Response

func (h *QueryHandler) ProcessQuery(c *gin.Context) {
	var req dtos.ProcessQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.queryService.ProcessQuery(c.Request.Context(), &req)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}

// @Summary Get database schema
// @Description Return the table and column layout of the named database
// @Accept json
// @Produce json
// @Param schemaRequest body dtos.SchemaRequest true "Schema request"
// @Success 200 {object} dtos.Response

func (h *QueryHandler) GetSchema(c *gin.Context) {
	var req dtos.SchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorMsg := err.Error()
		c.JSON(http.StatusBadRequest, dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	response, statusCode, err := h.queryService.GetSchema(c.Request.Context(), &req)
	if err != nil {
		errorMsg := err.Error()
		c.JSON(int(statusCode), dtos.Response{
			Success: false,
			Error:   &errorMsg,
		})
		return
	}

	c.JSON(int(statusCode), dtos.Response{
		Success: true,
		Data:    response,
	})
}
