package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mathrivals/ArenaServer/api/middleware"
	"github.com/mathrivals/ArenaServer/internal/matchmaking"
)

const INVALID_REQUEST = "invalid request"

var MatchmakingService *matchmaking.MatchmakingService

func RegisterMatchmakingRoutes(g *echo.Group) {
	g.POST("/queue", JoinQueueHandler)
	g.GET("/queue/:partyId", CheckMatchHandler)
	g.DELETE("/queue/:partyId", LeaveQueueHandler)
	g.GET("/queue/count", QueueCountHandler)
	g.POST("/matches/:id/result", FinalizeMatchHandler)
}

type JoinQueueRequest struct {
	PartyID   string `json:"partyId"`
	MatchType string `json:"matchType"`
}

type MatchResultRequest struct {
	WinnerPartyID string `json:"winnerPartyId"`
}

func JoinQueueHandler(c echo.Context) error {
	actorID, err := middleware.ActorID(c)
	if err != nil {
		return err
	}

	var req JoinQueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}
	if req.PartyID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "partyId is required")
	}

	result := MatchmakingService.JoinQueue(actorID, req.PartyID, req.MatchType)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	return c.JSON(status, result)
}

func CheckMatchHandler(c echo.Context) error {
	partyID := c.Param("partyId")
	if partyID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "partyId is required")
	}

	queueStatus := MatchmakingService.CheckMatch(partyID)
	resp := echo.Map{"status": queueStatus}
	if queueStatus.Error != "" {
		resp["error"] = queueStatus.Error
	}
	return c.JSON(http.StatusOK, resp)
}

func LeaveQueueHandler(c echo.Context) error {
	partyID := c.Param("partyId")
	if partyID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "partyId is required")
	}

	return c.JSON(http.StatusOK, MatchmakingService.LeaveQueue(partyID))
}

func QueueCountHandler(c echo.Context) error {
	matchType := c.QueryParam("matchType")
	return c.JSON(http.StatusOK, echo.Map{
		"count": MatchmakingService.QueueCount(matchType),
	})
}

func FinalizeMatchHandler(c echo.Context) error {
	matchID := c.Param("id")
	var req MatchResultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}
	if req.WinnerPartyID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "winnerPartyId is required")
	}

	record, err := MatchmakingService.FinalizeMatch(matchID, req.WinnerPartyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"match": record,
	})
}
