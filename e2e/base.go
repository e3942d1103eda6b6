package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
)

// BaseSuite wires the environment configuration and the HTTP/WebSocket
// helpers shared by every end to end scenario. Scenarios run against a
// live server; the suite skips itself when HUB_ADDR is unset.
type BaseSuite struct {
	suite.Suite
	Config Config
}

func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.HubAddr == "" {
		s.T().Skip("HUB_ADDR not set, skipping end to end suite")
	}
}

// Step prints a colorized header so scenario phases stand out in logs.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PostJSON issues a POST against the hub's REST surface and returns the
// status code and raw body.
func (s *BaseSuite) PostJSON(path string, payload any) (int, string) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)

	resp, err := http.Post(s.Config.HubAddr+path, "application/json", bytes.NewReader(data))
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	if s.Config.DebugJSON {
		s.T().Logf("POST %s -> %d\n%s", path, resp.StatusCode, body)
	}
	return resp.StatusCode, string(body)
}

// GetJSON issues a GET and returns the status code and raw body.
func (s *BaseSuite) GetJSON(path string) (int, string) {
	resp, err := http.Get(s.Config.HubAddr + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	if s.Config.DebugJSON {
		s.T().Logf("GET %s -> %d\n%s", path, resp.StatusCode, body)
	}
	return resp.StatusCode, string(body)
}

// Client is one WebSocket connection speaking the tagged event contract.
type Client struct {
	conn  *websocket.Conn
	suite *BaseSuite
}

// Dial opens a WebSocket connection to the hub's /ws endpoint.
func (s *BaseSuite) Dial(ctx context.Context) *Client {
	wsURL := strings.Replace(s.Config.HubAddr, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	s.Require().NoError(err)
	return &Client{conn: conn, suite: s}
}

func (c *Client) Close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "done")
}

// Send writes one tagged frame.
func (c *Client) Send(ctx context.Context, payload any) {
	data, err := json.Marshal(payload)
	c.suite.Require().NoError(err)
	c.suite.Require().NoError(c.conn.Write(ctx, websocket.MessageText, data))
	if c.suite.Config.DebugJSON {
		c.suite.T().Logf("WS SEND %s", data)
	}
}

// Expect reads frames until one of the wanted type arrives or the timeout
// hits, returning its raw body. Interleaved events of other types are
// tolerated and logged.
func (c *Client) Expect(eventType string, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		_, data, err := c.conn.Read(ctx)
		c.suite.Require().NoError(err, "No %q event within %v", eventType, timeout)

		if c.suite.Config.DebugJSON {
			c.suite.T().Logf("WS RECV %s", data)
		}
		if gjson.GetBytes(data, "type").String() == eventType {
			return string(data)
		}
	}
}
