// Package main provides a small terminal client for the learnchat server.
//
// Usage:
//
//	chatcli [-addr http://localhost:3000] chat
//	chatcli [-addr http://localhost:3000] watch <courseId>
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/learnchat/internal/domain"
)

// Client talks to one learnchat server.
type Client struct {
	baseURL string
	http    *http.Client
	history []domain.Message
}

// NewClient creates a client for the server at addr.
func NewClient(addr string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(addr, "/"),
		http:    &http.Client{},
	}
}

// Send posts the conversation plus content to /api/chat, prints the streamed
// answer to out and records the assistant reply in the history.
func (c *Client) Send(content string, out io.Writer) error {
	messages := append(append([]domain.Message(nil), c.history...), domain.Message{Role: domain.RoleUser, Content: content})
	body, err := json.Marshal(domain.ChatRequest{Messages: messages})
	if err != nil {
		return err
	}

	resp, err := c.http.Post(c.baseURL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	reply, err := readStream(resp.Body, out)
	if err != nil {
		return err
	}
	c.history = append(messages, *reply)
	return nil
}

// readStream prints data stream frames as they arrive and assembles the
// assistant message they describe.
func readStream(r io.Reader, out io.Writer) (*domain.Message, error) {
	reply := &domain.Message{Role: domain.RoleAssistant}
	var text strings.Builder
	calls := map[string]int{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		code, payload, err := parseFrame(scanner.Text())
		if err != nil {
			return nil, err
		}
		switch code {
		case '0':
			var delta string
			if err := json.Unmarshal(payload, &delta); err != nil {
				return nil, fmt.Errorf("decode text frame: %w", err)
			}
			text.WriteString(delta)
			fmt.Fprint(out, delta)
		case '9':
			var call domain.ToolInvocation
			if err := json.Unmarshal(payload, &call); err != nil {
				return nil, fmt.Errorf("decode tool call frame: %w", err)
			}
			calls[call.ToolCallID] = len(reply.ToolInvocations)
			reply.ToolInvocations = append(reply.ToolInvocations, call)
			fmt.Fprintf(out, "\n[tool %s %s]\n", call.ToolName, call.Args)
		case 'a':
			var result domain.ToolInvocation
			if err := json.Unmarshal(payload, &result); err != nil {
				return nil, fmt.Errorf("decode tool result frame: %w", err)
			}
			if i, ok := calls[result.ToolCallID]; ok {
				reply.ToolInvocations[i].Result = result.Result
			}
			fmt.Fprintf(out, "[result %s]\n", result.Result)
		case '3':
			var msg string
			json.Unmarshal(payload, &msg)
			return nil, fmt.Errorf("server error: %s", msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	fmt.Fprintln(out)

	reply.Content = text.String()
	return reply, nil
}

// parseFrame splits a "<code>:<json>" line.
func parseFrame(line string) (byte, json.RawMessage, error) {
	if len(line) < 2 || line[1] != ':' {
		return 0, nil, fmt.Errorf("malformed frame %q", line)
	}
	return line[0], json.RawMessage(line[2:]), nil
}

// Watch prints a line for every snapshot of the live course until the
// connection closes or done is closed.
func (c *Client) Watch(courseID string, out io.Writer, done <-chan struct{}) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/live-courses/" + url.PathEscape(courseID) + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-done
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Fprintln(out, describeSnapshot(courseID, data))
	}
}

func describeSnapshot(courseID string, data []byte) string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Sprintf("[%s] unreadable update: %v", courseID, err)
	}
	if obj, ok := doc.(map[string]any); ok {
		if msg, ok := obj["error"].(string); ok && len(obj) == 1 {
			return fmt.Sprintf("[%s] error: %s", courseID, msg)
		}
	}
	course, err := domain.NormalizeCourse(courseID, doc)
	if err != nil {
		return fmt.Sprintf("[%s] unreadable update: %v", courseID, err)
	}
	sections := 0
	for _, ch := range course.Chapters {
		sections += len(ch.Sections)
	}
	return fmt.Sprintf("[%s] %q: %d chapters, %d sections", courseID, course.Title, len(course.Chapters), sections)
}

func main() {
	addr := flag.String("addr", "http://localhost:3000", "learnchat server address")
	flag.Parse()

	log.SetFlags(log.Ltime)
	client := NewClient(*addr)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	switch flag.Arg(0) {
	case "watch":
		courseID := flag.Arg(1)
		if courseID == "" {
			log.Fatal("usage: chatcli watch <courseId>")
		}
		done := make(chan struct{})
		go func() {
			<-interrupt
			close(done)
		}()
		fmt.Printf("Watching %s on %s...\n", courseID, *addr)
		if err := client.Watch(courseID, os.Stdout, done); err != nil {
			log.Fatalf("Watch failed: %v", err)
		}

	case "", "chat":
		chat(client, interrupt)

	default:
		log.Fatalf("unknown command %q (want chat or watch)", flag.Arg(0))
	}
}

func chat(client *Client, interrupt <-chan os.Signal) {
	fmt.Println("Type a message and press Enter to send.")
	fmt.Println("Commands: /reset to clear the conversation, /quit to exit")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			input := strings.TrimSpace(line)
			switch input {
			case "":
				continue
			case "/quit":
				fmt.Println("Bye!")
				return
			case "/reset":
				client.history = nil
				continue
			}
			if err := client.Send(input, os.Stdout); err != nil {
				log.Printf("Send error: %v", err)
			}
		}
	}
}
