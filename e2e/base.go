package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"gridchat/auth"
)

// BaseChatSuite carries the shared plumbing of the e2e scenarios: it
// mints participant tokens, opens websocket sessions against a running
// server and wraps the REST surface. Scenarios skip themselves when no
// SERVER_ADDR is configured.
type BaseChatSuite struct {
	suite.Suite
	Config Config
}

func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e suite")
	}
}

func (s *BaseChatSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Token mints a participant token with the suite's shared secret.
func (s *BaseChatSuite) Token(userID string) string {
	token, err := auth.IssueToken([]byte(s.Config.JWTSecret), userID, []string{"participant"}, time.Hour)
	s.Require().NoError(err)
	return token
}

// DialRoom opens an authenticated websocket session into a room.
func (s *BaseChatSuite) DialRoom(roomID, userID string) *websocket.Conn {
	u := url.URL{
		Scheme:   "ws",
		Host:     s.Config.ServerAddr,
		Path:     fmt.Sprintf("/ws/chat/%s/", roomID),
		RawQuery: "token=" + url.QueryEscape(s.Token(userID)),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to open websocket session for "+userID)
	return conn
}

// ReadFrame reads one frame with a deadline and decodes it into a map.
func (s *BaseChatSuite) ReadFrame(conn *websocket.Conn, within time.Duration) map[string]any {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(within)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)

	var frame map[string]any
	s.Require().NoError(json.Unmarshal(raw, &frame))
	return frame
}

// API performs an authenticated REST call and decodes the JSON reply.
func (s *BaseChatSuite) API(method, path, userID string, body io.Reader, contentType string) (int, map[string]any) {
	req, err := http.NewRequest(method, "http://"+s.Config.ServerAddr+path, body)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.Token(userID))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	decoded := map[string]any{}
	if len(raw) > 0 {
		// Non-object replies (arrays, empty bodies) stay raw
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}
