package agent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/config"
	"github.com/spec-kit/glpi-bridge/internal/events"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	"github.com/spec-kit/glpi-bridge/internal/persistence"
)

// fakeTicket is the upstream-side view of a ticket in the fake helpdesk.
type fakeTicket struct {
	ID          int
	Name        string
	Content     string
	Status      int
	CategoryID  int
	RequesterID int
}

type fakeCategory struct {
	ID   int
	Name string
}

type fakeFollowup struct {
	TicketID int
	Content  string
}

type fakeSolution struct {
	TicketID int
	Content  string
	Status   int
}

// fakeHelpdesk emulates the small slice of the upstream REST API the
// service touches: session init, ticket search and retrieval, ticket
// creation, followups, solutions and the category listing.
type fakeHelpdesk struct {
	mu         sync.Mutex
	tickets    []*fakeTicket
	categories []fakeCategory
	nextID     int

	created   []*fakeTicket
	followups []fakeFollowup
	solutions []fakeSolution
}

func newFakeHelpdesk() *fakeHelpdesk {
	return &fakeHelpdesk{nextID: 1}
}

func (f *fakeHelpdesk) addTicket(ticket fakeTicket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket.ID >= f.nextID {
		f.nextID = ticket.ID + 1
	}
	copied := ticket
	f.tickets = append(f.tickets, &copied)
}

func (f *fakeHelpdesk) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/initSession":
		fmt.Fprint(w, `{"session_token":"tok"}`)
	case path == "/killSession":
		w.WriteHeader(http.StatusOK)
	case path == "/ITILCategory":
		f.writeCategories(w)
	case path == "/Ticket" && r.Method == http.MethodGet:
		f.search(w, r)
	case path == "/Ticket" && r.Method == http.MethodPost:
		f.create(w, r)
	case strings.HasSuffix(path, "/ITILFollowup"):
		f.addFollowup(w, r)
	case strings.HasSuffix(path, "/ITILSolution"):
		f.addSolution(w, r)
	case strings.HasPrefix(path, "/Ticket/"):
		f.get(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeHelpdesk) writeCategories(w http.ResponseWriter) {
	entries := make([]map[string]any, 0, len(f.categories))
	for _, category := range f.categories {
		entries = append(entries, map[string]any{
			"id":           category.ID,
			"name":         category.Name,
			"completename": category.Name,
		})
	}
	_ = json.NewEncoder(w).Encode(entries)
}

func (f *fakeHelpdesk) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := strings.ToLower(query.Get("searchText[name]"))
	content := strings.ToLower(query.Get("searchText[content]"))
	statuses := map[int]bool{}
	if raw := query.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if status, err := strconv.Atoi(part); err == nil {
				statuses[status] = true
			}
		}
	}
	categoryID, _ := strconv.Atoi(query.Get("itilcategories_id"))
	requesterID, _ := strconv.Atoi(query.Get("users_id_recipient"))

	matches := make([]map[string]any, 0)
	for _, ticket := range f.tickets {
		if name != "" && !strings.Contains(strings.ToLower(ticket.Name), name) {
			continue
		}
		if content != "" && !strings.Contains(strings.ToLower(ticket.Content), content) {
			continue
		}
		if len(statuses) > 0 && !statuses[ticket.Status] {
			continue
		}
		if categoryID > 0 && ticket.CategoryID != categoryID {
			continue
		}
		if requesterID > 0 && ticket.RequesterID != requesterID {
			continue
		}
		matches = append(matches, wireForm(ticket))
	}
	_ = json.NewEncoder(w).Encode(matches)
}

func (f *fakeHelpdesk) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/Ticket/"))
	for _, ticket := range f.tickets {
		if ticket.ID == id {
			_ = json.NewEncoder(w).Encode(wireForm(ticket))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeHelpdesk) create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)

	ticket := &fakeTicket{
		ID:          f.nextID,
		Name:        stringField(payload, "name"),
		Content:     stringField(payload, "content"),
		Status:      1,
		CategoryID:  intField(payload, "itilcategories_id"),
		RequesterID: intField(payload, "users_id_recipient"),
	}
	f.nextID++
	f.tickets = append(f.tickets, ticket)
	f.created = append(f.created, ticket)

	fmt.Fprintf(w, `{"id":%d}`, ticket.ID)
}

func (f *fakeHelpdesk) addFollowup(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	f.followups = append(f.followups, fakeFollowup{
		TicketID: intField(payload, "items_id"),
		Content:  stringField(payload, "content"),
	})
	fmt.Fprintf(w, `{"id":%d}`, len(f.followups))
}

func (f *fakeHelpdesk) addSolution(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	solution := fakeSolution{
		TicketID: intField(payload, "items_id"),
		Content:  stringField(payload, "content"),
		Status:   intField(payload, "status"),
	}
	f.solutions = append(f.solutions, solution)
	for _, ticket := range f.tickets {
		if ticket.ID == solution.TicketID {
			ticket.Status = solution.Status
		}
	}
	fmt.Fprintf(w, `{"id":%d}`, len(f.solutions))
}

func wireForm(ticket *fakeTicket) map[string]any {
	return map[string]any{
		"id":                 ticket.ID,
		"name":               ticket.Name,
		"content":            ticket.Content,
		"status":             ticket.Status,
		"itilcategories_id":  ticket.CategoryID,
		"users_id_recipient": ticket.RequesterID,
	}
}

func stringField(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}

func intField(payload map[string]any, key string) int {
	value, _ := payload[key].(float64)
	return int(value)
}

// testStack bundles the collaborators wired against a fake helpdesk.
type testStack struct {
	helpdesk   *fakeHelpdesk
	gateway    *glpi.TicketGateway
	directory  *glpi.CategoryDirectory
	classifier *KeywordClassifier
	relator    *Relator
	dispatcher events.Dispatcher
	engine     *DecisionEngine
}

func newTestStack(t *testing.T, helpdesk *fakeHelpdesk) *testStack {
	t.Helper()
	srv := httptest.NewServer(helpdesk)
	t.Cleanup(srv.Close)

	cfg := config.GLPIConfig{
		BaseURL:                srv.URL,
		AppToken:               "app-token",
		UserToken:              "user-token",
		SessionTTLSeconds:      3600,
		CategoryTTLSeconds:     300,
		UpstreamTimeoutSeconds: 5,
	}
	logger := zap.NewNop()
	session := glpi.NewSessionManager(cfg, logger, nil)
	client := glpi.NewClient(cfg, session, logger, nil)
	gateway := glpi.NewTicketGateway(client, 0, logger)
	directory := glpi.NewCategoryDirectory(client, persistence.NewMemoryStore(), time.Minute, logger)

	classifier := NewKeywordClassifier(directory, logger)
	relator := NewRelator(gateway, logger)
	dispatcher := events.NewInMemoryDispatcher()
	engine := NewDecisionEngine(EngineDependencies{
		Gateway:    gateway,
		Classifier: classifier,
		Relator:    relator,
		Dispatcher: dispatcher,
	}, logger)

	return &testStack{
		helpdesk:   helpdesk,
		gateway:    gateway,
		directory:  directory,
		classifier: classifier,
		relator:    relator,
		dispatcher: dispatcher,
		engine:     engine,
	}
}

func defaultCategories() []fakeCategory {
	return []fakeCategory{
		{ID: 10, Name: "Hardware"},
		{ID: 20, Name: "Software"},
		{ID: 30, Name: "Redes"},
	}
}
