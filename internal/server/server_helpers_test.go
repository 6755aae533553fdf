package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsFrame struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack"`
	Data json.RawMessage `json:"data"`
}

type uploadPart struct {
	name        string
	contentType string
	body        string
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func doUpload(t *testing.T, ts *httptest.Server, path, field string, parts ...uploadPart) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, part.name))
		header.Set("Content-Type", part.contentType)
		w, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func assertString(t *testing.T, value any) string {
	t.Helper()
	text, ok := value.(string)
	if !ok {
		t.Fatalf("expected string, got %T", value)
	}
	return text
}

// dialWS connects to the event channel and returns the assigned connection id.
func dialWS(t *testing.T, ts *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	frame := waitForFrame(t, conn, 5*time.Second, frameConnected)
	var payload connectedPayload
	decodeFrameData(t, frame, &payload)
	if payload.ConnID == "" {
		t.Fatalf("expected connection id in connected frame")
	}
	return conn, payload.ConnID
}

func sendFrame(t *testing.T, conn *websocket.Conn, eventType, ack string, data any) {
	t.Helper()
	frame := map[string]any{"type": eventType}
	if ack != "" {
		frame["ack"] = ack
	}
	if data != nil {
		frame["data"] = data
	}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var frame wsFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode frame %s: %v", payload, err)
	}
	return frame
}

// waitForFrame reads until a frame of the given type arrives.
func waitForFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration, frameType string) wsFrame {
	t.Helper()
	deadline := time.Now().Add(timeout)
	seen := make([]string, 0)
	for time.Now().Before(deadline) {
		frame := readFrame(t, conn, time.Until(deadline))
		if frame.Type == frameType {
			return frame
		}
		seen = append(seen, frame.Type)
	}
	t.Fatalf("expected %s frame, saw %v", frameType, seen)
	return wsFrame{}
}

func decodeFrameData(t *testing.T, frame wsFrame, dest any) {
	t.Helper()
	if err := json.Unmarshal(frame.Data, dest); err != nil {
		t.Fatalf("decode %s data: %v", frame.Type, err)
	}
}

func expectAck(t *testing.T, conn *websocket.Conn, id string) ackPayload {
	t.Helper()
	frame := waitForFrame(t, conn, 5*time.Second, frameAck)
	if frame.Ack != id {
		t.Fatalf("expected ack %s, got %s", id, frame.Ack)
	}
	var ack ackPayload
	decodeFrameData(t, frame, &ack)
	return ack
}

func createRoom(t *testing.T, conn *websocket.Conn, name string) string {
	t.Helper()
	sendFrame(t, conn, eventCreateRoom, "create", map[string]any{"name": name})
	ack := expectAck(t, conn, "create")
	if !ack.Success || ack.RoomID == "" {
		t.Fatalf("expected successful create, got %+v", ack)
	}
	return ack.RoomID
}

func joinRoom(t *testing.T, conn *websocket.Conn, code, name string) {
	t.Helper()
	sendFrame(t, conn, eventJoinRoom, "join", map[string]any{"code": code, "name": name})
	ack := expectAck(t, conn, "join")
	if !ack.Success || ack.RoomID != code {
		t.Fatalf("expected successful join of %s, got %+v", code, ack)
	}
}
