package websocket

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/mathrivals/ArenaServer/internal/matchmaking"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
)

var MatchmakingService *matchmaking.MatchmakingService

// pollInterval is how often the relay re-runs the non-blocking queue check
// on behalf of a connected client.
const pollInterval = 2 * time.Second

type StatusMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// QueueSocketHandler pushes queue status updates to a party member. It is
// transport sugar over CheckMatch: the server polls the same single-step
// check the HTTP endpoint exposes and closes once the attempt reaches a
// terminal state.
func QueueSocketHandler(c echo.Context) error {
	tokenString := c.QueryParam("token")

	if _, err := ValidateJWT(tokenString); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	partyID := c.QueryParam("partyId")
	if partyID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "partyId is required")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return err
	}

	go relayQueueStatus(partyID, ws)
	return nil
}

func relayQueueStatus(partyID string, ws *websocket.Conn) {
	defer ws.Close()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status := MatchmakingService.CheckMatch(partyID)
		msg := StatusMessage{
			Type:    "QUEUE_STATUS",
			Payload: status,
		}
		if err := ws.WriteJSON(msg); err != nil {
			log.Println("Error sending queue status to party", partyID, ":", err)
			return
		}

		if !status.InQueue {
			return
		}
		<-ticker.C
	}
}

func ValidateJWT(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("empty token")
	}

	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid token")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %v", err)
	}

	userID, ok := claims["id"].(float64)
	if !ok {
		return "", errors.New("user id not found in token claims")
	}

	return strconv.Itoa(int(userID)), nil
}
