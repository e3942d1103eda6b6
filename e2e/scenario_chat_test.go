package e2e

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
)

type testChatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func (s *testChatSuite) TestTwoUsersChatFlow() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	unique := uuid.NewString()[:8]
	var aliceID, bobID, roomID string

	s.Run("Step 1: Register two users", func() {
		s.Step("Registering Alice and Bob")
		status, body := s.PostJSON("/api/users", map[string]string{"username": "alice-" + unique})
		s.Require().Equal(http.StatusCreated, status)
		aliceID = gjson.Get(body, "id").String()

		status, body = s.PostJSON("/api/users", map[string]string{"username": "bob-" + unique})
		s.Require().Equal(http.StatusCreated, status)
		bobID = gjson.Get(body, "id").String()

		// Duplicate names are refused
		status, _ = s.PostJSON("/api/users", map[string]string{"username": "alice-" + unique})
		s.Require().Equal(http.StatusConflict, status)
	})

	s.Run("Step 2: Create a room", func() {
		s.Step("Creating the scenario room")
		status, body := s.PostJSON("/api/rooms", map[string]string{"name": "room-" + unique})
		s.Require().Equal(http.StatusCreated, status)
		roomID = gjson.Get(body, "id").String()
	})

	alice := s.Dial(ctx)
	defer alice.Close()
	bob := s.Dial(ctx)
	defer bob.Close()

	s.Run("Step 3: Both users join and see the presence snapshot", func() {
		s.Step("Joining the room")
		alice.Send(ctx, map[string]string{"type": "joinRoom", "roomId": roomID, "userId": aliceID})
		joined := alice.Expect("userJoined", 5*time.Second)
		s.Require().Equal(aliceID, gjson.Get(joined, "userId").String())

		bob.Send(ctx, map[string]string{"type": "joinRoom", "roomId": roomID, "userId": bobID})

		// Alice observes Bob's arrival with the full member snapshot
		joined = alice.Expect("userJoined", 5*time.Second)
		s.Require().Equal(bobID, gjson.Get(joined, "userId").String())
		s.Require().Equal(int64(2), gjson.Get(joined, "activeUsers.#").Int())
	})

	s.Run("Step 4: A message fans out to every subscriber", func() {
		s.Step("Alice speaks")
		bob.Expect("userJoined", 5*time.Second)

		alice.Send(ctx, map[string]string{
			"type": "sendMessage", "roomId": roomID, "userId": aliceID,
			"text": "hello from the suite",
		})

		for _, client := range []*Client{alice, bob} {
			msg := client.Expect("newMessage", 5*time.Second)
			s.Require().Equal("hello from the suite", gjson.Get(msg, "content").String())
			s.Require().Equal(aliceID, gjson.Get(msg, "sender.id").String())
		}
	})

	s.Run("Step 5: History survives the live path", func() {
		s.Step("Reading history over REST")
		status, body := s.GetJSON("/api/rooms/" + roomID + "/messages")
		s.Require().Equal(http.StatusOK, status)
		s.Require().Equal("hello from the suite", gjson.Get(body, "messages.0.content").String())
	})

	s.Run("Step 6: Disconnect broadcasts the departure", func() {
		s.Step("Bob drops the connection")
		bob.Close()

		left := alice.Expect("userLeft", 5*time.Second)
		s.Require().Equal(bobID, gjson.Get(left, "userId").String())
		s.Require().Equal(roomID, gjson.Get(left, "roomId").String())
	})
}
