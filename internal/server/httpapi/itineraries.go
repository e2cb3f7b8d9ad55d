package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/services"
	"github.com/gin-gonic/gin"
)

type generateRequest struct {
	Messages []models.Turn `json:"messages"`
	// CurrentItinerary is accepted for client compatibility and ignored.
	CurrentItinerary any `json:"current_itinerary"`
}

func (s *Server) chatConversation(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn(c.Request.Context(), "bad chat request", "error", err)
		c.JSON(http.StatusOK, services.FailureReply())
		return
	}
	c.JSON(http.StatusOK, s.chat.Converse(c.Request.Context(), currentUser(c), req))
}

func (s *Server) generateItinerary(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.itineraries.Generate(c.Request.Context(), currentUser(c), req.Messages)
	if err != nil {
		s.logger.Error(c.Request.Context(), "itinerary generation failed", "error", err)
		abort(c, http.StatusInternalServerError, "Failed to generate itinerary")
		return
	}

	if res.Outcome == services.OutcomeBlocked {
		abort(c, http.StatusForbidden, res.Message)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itinerary": res.Itinerary, "llm_message": res.Message})
}

func (s *Server) myItineraries(c *gin.Context) {
	list, err := s.itineraries.List(c.Request.Context(), currentUser(c).Email)
	if err != nil {
		s.logger.Error(c.Request.Context(), "list itineraries failed", "error", err)
		abort(c, http.StatusInternalServerError, "Failed to fetch itineraries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"itineraries": list})
}

func (s *Server) getItinerary(c *gin.Context) {
	view, err := s.itineraries.Get(c.Request.Context(), currentUser(c).Email, c.Param("id"))
	if err != nil {
		s.itineraryError(c, err, "Itinerary not found", "Failed to fetch itinerary details")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) deleteItinerary(c *gin.Context) {
	err := s.itineraries.Delete(c.Request.Context(), currentUser(c).Email, c.Param("id"))
	if err != nil {
		s.itineraryError(c, err,
			"Itinerary not found or you don't have permission to delete it",
			"Failed to delete itinerary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Itinerary deleted successfully"})
}

func (s *Server) exportItinerary(c *gin.Context) {
	exp, err := s.exporter.Export(c.Request.Context(), currentUser(c).Email, c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrExportDisabled) {
			abort(c, http.StatusServiceUnavailable, "Itinerary export is not available")
			return
		}
		s.itineraryError(c, err, "Itinerary not found", "Failed to export itinerary")
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (s *Server) itineraryError(c *gin.Context, err error, notFound, internal string) {
	switch {
	case errors.Is(err, common.ErrInvalidID):
		abort(c, http.StatusBadRequest, "Invalid itinerary ID format")
	case errors.Is(err, common.ErrNotFound):
		abort(c, http.StatusNotFound, notFound)
	default:
		s.logger.Error(c.Request.Context(), internal, "error", err)
		abort(c, http.StatusInternalServerError, internal)
	}
}
