package events

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	. "github.com/onsi/gomega"
)

func dial(g *WithT, url string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	g.Expect(err).NotTo(HaveOccurred())
	return conn
}

func TestHubDeliversPublishedEvents(t *testing.T) {
	g := NewWithT(t)

	hub := NewHub(log.New(&bytes.Buffer{}, "", 0))
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(g, server.URL)
	defer conn.Close()
	g.Eventually(hub.Clients).Should(Equal(1))

	hub.Publish(Load("cubes.glb", []string{"Scene", "cube1", "cube2"}))
	point := mgl32.Vec3{1, 0, 0.5}
	hub.Publish(Pick(400, 300, "cube2", &point))
	hub.Publish(Action("navigate", "http://localhost:8080/home", ""))

	var got []Event
	for i := 0; i < 3; i++ {
		var e Event
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		g.Expect(conn.ReadJSON(&e)).To(Succeed())
		got = append(got, e)
	}

	g.Expect(got[0].Type).To(Equal(TypeLoad))
	g.Expect(got[0].Nodes).To(Equal([]string{"Scene", "cube1", "cube2"}))
	g.Expect(got[1].Type).To(Equal(TypePick))
	g.Expect(got[1].Node).To(Equal("cube2"))
	g.Expect(got[1].Point).To(Equal(&[3]float32{1, 0, 0.5}))
	g.Expect(got[2]).To(HaveField("Action", "navigate"))
	g.Expect(got[2]).To(HaveField("Target", "http://localhost:8080/home"))
}

func TestHubForgetsClosedClients(t *testing.T) {
	g := NewWithT(t)

	hub := NewHub(log.New(&bytes.Buffer{}, "", 0))
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(g, server.URL)
	g.Eventually(hub.Clients).Should(Equal(1))

	conn.Close()
	g.Eventually(hub.Clients).Should(BeZero())

	// Publishing with nobody listening is fine.
	hub.Publish(Resize(800, 600))
}

func TestHubDropsEventsForSlowClients(t *testing.T) {
	g := NewWithT(t)

	var logs bytes.Buffer
	hub := NewHub(log.New(&logs, "", 0))

	// A client whose writer never drains its queue.
	c := &client{addr: "slow", queue: make(chan Event, 1), done: make(chan struct{})}
	hub.clients[c] = struct{}{}

	hub.Publish(Resize(1, 1))
	hub.Publish(Resize(2, 2))

	g.Expect(c.queue).To(HaveLen(1))
	g.Expect(<-c.queue).To(HaveField("Width", 1))
	g.Expect(logs.String()).To(ContainSubstring("dropping resize event for slow client slow"))
}

func TestServerShutdown(t *testing.T) {
	g := NewWithT(t)

	hub := NewHub(log.New(&bytes.Buffer{}, "", 0))
	srv, err := Listen("127.0.0.1:0", "/events", hub)
	g.Expect(err).NotTo(HaveOccurred())

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	conn := dial(g, "http://"+srv.Addr().String()+"/events")
	defer conn.Close()
	g.Eventually(hub.Clients).Should(Equal(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g.Expect(srv.Shutdown(ctx)).To(Succeed())
	g.Eventually(served).Should(Receive(BeNil()))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	g.Expect(errors.As(err, &closeErr)).To(BeTrue(), "got %v", err)
	g.Expect(closeErr.Code).To(Equal(websocket.CloseGoingAway))
}

func TestPublishDoesNotWaitForClose(t *testing.T) {
	g := NewWithT(t)

	hub := NewHub(log.New(&bytes.Buffer{}, "", 0))
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(g, server.URL)
	defer conn.Close()
	g.Eventually(hub.Clients).Should(Equal(1))

	// Stall the server side writer so Close sits on its close frame.
	var c *client
	hub.mu.Lock()
	for c = range hub.clients {
	}
	hub.mu.Unlock()
	c.writeMu.Lock()

	closed := make(chan struct{})
	go func() {
		hub.Close()
		close(closed)
	}()
	g.Eventually(hub.Clients).Should(BeZero())
	g.Consistently(closed, 100*time.Millisecond).ShouldNot(BeClosed())

	published := make(chan struct{})
	go func() {
		hub.Publish(Resize(800, 600))
		close(published)
	}()
	g.Eventually(published, time.Second).Should(BeClosed())

	c.writeMu.Unlock()
	g.Eventually(closed, 5*time.Second).Should(BeClosed())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	g.Expect(errors.As(err, &closeErr)).To(BeTrue(), "got %v", err)
	g.Expect(closeErr.Code).To(Equal(websocket.CloseGoingAway))
}

func TestDiscard(t *testing.T) {
	Discard.Publish(LoadError("x.glb", errors.New("boom")))
}
