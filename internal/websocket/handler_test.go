package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/internal/session"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Fake verifier mapping tokens to identities.
type fakeVerifier struct {
	identities map[string][2]string // token -> {userID, role}
}

func (f *fakeVerifier) Verify(token string) (string, string, error) {
	identity, ok := f.identities[token]
	if !ok {
		return "", "", interfaces.ErrInvalidCredential
	}
	return identity[0], identity[1], nil
}

// In-memory stores backing the engine for gateway tests.
type fakeClassStore struct {
	enrolled map[string]bool // classID+"/"+studentID
}

func (f *fakeClassStore) CreateClass(ctx context.Context, class *types.Class) error { return nil }
func (f *fakeClassStore) GetClass(ctx context.Context, classID string) (*types.Class, error) {
	return nil, interfaces.ErrClassNotFound
}
func (f *fakeClassStore) AddStudent(ctx context.Context, classID, studentID string) error {
	f.enrolled[classID+"/"+studentID] = true
	return nil
}
func (f *fakeClassStore) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	return f.enrolled[classID+"/"+studentID], nil
}

type fakeLedger struct {
	records map[string]*types.AttendanceRecord
}

func (f *fakeLedger) FindRecord(ctx context.Context, classID, studentID string) (*types.AttendanceRecord, error) {
	return f.records[classID+"/"+studentID], nil
}
func (f *fakeLedger) InsertRecord(ctx context.Context, record *types.AttendanceRecord) error {
	key := record.ClassID + "/" + record.StudentID
	if _, exists := f.records[key]; exists {
		return interfaces.ErrDuplicateRecord
	}
	f.records[key] = record
	return nil
}
func (f *fakeLedger) ListRecordsByClass(ctx context.Context, classID string) ([]*types.AttendanceRecord, error) {
	return nil, nil
}

type gatewayFixture struct {
	server   *httptest.Server
	registry *session.Registry
	classes  *fakeClassStore
	ledger   *fakeLedger
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	verifier := &fakeVerifier{identities: map[string][2]string{
		"student-token": {"s1", types.RoleStudent},
		"other-student": {"s2", types.RoleStudent},
		"teacher-token": {"t1", types.RoleTeacher},
	}}
	registry := session.NewRegistry()
	classes := &fakeClassStore{enrolled: make(map[string]bool)}
	ledger := &fakeLedger{records: make(map[string]*types.AttendanceRecord)}
	engine := attendance.NewEngine(registry, classes, ledger)

	cfg := &config.WebSocketConfig{
		HandshakeTimeout: time.Second,
		WriteTimeout:     time.Second,
		BufferSize:       8,
	}
	handler := NewHandler(verifier, engine, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWebSocket)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &gatewayFixture{server: server, registry: registry, classes: classes, ledger: ledger}
}

func (f *gatewayFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) types.Reply {
	t.Helper()
	var reply types.Reply
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("invalid reply %q: %v", data, err)
	}
	return reply
}

func expectPolicyClose(t *testing.T, conn *websocket.Conn, reason string) {
	t.Helper()
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected close code 1008, got %d", closeErr.Code)
	}
	if closeErr.Text != reason {
		t.Fatalf("expected close reason %q, got %q", reason, closeErr.Text)
	}
}

func sendMark(t *testing.T, conn *websocket.Conn, classID string) {
	t.Helper()
	msg := types.MarkRequest{Type: types.MessageTypeMarkAttendance, ClassID: classID}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestGateway_MissingToken(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t, "")
	expectPolicyClose(t, conn, CloseReasonTokenRequired)
}

func TestGateway_InvalidToken(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t, "?token=garbage")
	expectPolicyClose(t, conn, CloseReasonInvalidToken)
}

func TestGateway_TeacherRejected(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t, "?token=teacher-token")
	expectPolicyClose(t, conn, CloseReasonStudentsOnly)
}

func TestGateway_MalformedMessageKeepsConnectionOpen(t *testing.T) {
	f := newGatewayFixture(t)
	f.registry.SetActive(types.NewActiveSession("c1"))
	f.classes.enrolled["c1/s1"] = true

	conn := f.dial(t, "?token=student-token")

	// Non-JSON frame.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply := readReply(t, conn)
	if reply.Type != types.ReplyTypeError || reply.Message != "Invalid message format" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// Wrong message type.
	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reply = readReply(t, conn)
	if reply.Type != types.ReplyTypeError || reply.Message != "Invalid message format" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// The connection must still work afterwards.
	sendMark(t, conn, "c1")
	reply = readReply(t, conn)
	if reply.Type != types.ReplyTypeSuccess {
		t.Fatalf("expected success after malformed frames, got %+v", reply)
	}
}

func TestGateway_NoActiveSession(t *testing.T) {
	f := newGatewayFixture(t)
	f.classes.enrolled["c1/s1"] = true

	conn := f.dial(t, "?token=student-token")
	sendMark(t, conn, "c1")

	reply := readReply(t, conn)
	if reply.Type != types.ReplyTypeError || reply.Message != "No active session for this class" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestGateway_EndToEndScenario(t *testing.T) {
	f := newGatewayFixture(t)
	f.registry.SetActive(types.NewActiveSession("c1"))
	f.classes.enrolled["c1/s1"] = true

	// Enrolled student marks attendance.
	conn := f.dial(t, "?token=student-token")
	sendMark(t, conn, "c1")
	reply := readReply(t, conn)
	if reply.Type != types.ReplyTypeSuccess || reply.Message != "Attendance marked successfully" {
		t.Fatalf("unexpected first reply: %+v", reply)
	}

	// Same student again: idempotent no-op acknowledged as info.
	sendMark(t, conn, "c1")
	reply = readReply(t, conn)
	if reply.Type != types.ReplyTypeInfo || reply.Message != "Attendance already marked" {
		t.Fatalf("unexpected second reply: %+v", reply)
	}

	// Unenrolled student is rejected.
	other := f.dial(t, "?token=other-student")
	sendMark(t, other, "c1")
	reply = readReply(t, other)
	if reply.Type != types.ReplyTypeError || reply.Message != "You are not enrolled in this class" {
		t.Fatalf("unexpected reply for unenrolled student: %+v", reply)
	}

	if len(f.ledger.records) != 1 {
		t.Fatalf("expected exactly one ledger record, got %d", len(f.ledger.records))
	}
}

func TestGateway_SessionMismatch(t *testing.T) {
	f := newGatewayFixture(t)
	f.registry.SetActive(types.NewActiveSession("c1"))
	f.classes.enrolled["c2/s1"] = true

	conn := f.dial(t, "?token=student-token")
	sendMark(t, conn, "c2")

	reply := readReply(t, conn)
	if reply.Type != types.ReplyTypeError || reply.Message != "No active session for this class" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}
