package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mnu "github.com/MikeMC777/pedidos-live/internal/menu"
	ord "github.com/MikeMC777/pedidos-live/internal/order"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

//
// ---------- STUBS & FAKES ----------
//

// stubOrderRepo implements ord.Repository in memory.
type stubOrderRepo struct {
	orders map[string]*ord.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*ord.Order)}
}

func (s *stubOrderRepo) Create(ctx context.Context, o *ord.Order) error {
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *stubOrderRepo) GetByID(ctx context.Context, id string) (*ord.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ord.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *stubOrderRepo) list(match func(*ord.Order) bool) []ord.Order {
	var out []ord.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, *o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *stubOrderRepo) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]ord.Order, error) {
	return s.list(func(o *ord.Order) bool { return o.BusinessID == businessID }), nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ord.Order, error) {
	return s.list(func(o *ord.Order) bool { return o.UserID == userID }), nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id string, st status.Status, note string) (*ord.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ord.ErrNotFound
	}
	now := time.Now().UTC()
	o.Status = st
	o.UpdatedAt = now
	o.StatusHistory = append(o.StatusHistory, ord.HistoryEntry{Status: st, Timestamp: now, Note: note})
	return o.Clone(), nil
}

// stubMenuRepo implements mnu.Repository in memory.
type stubMenuRepo struct {
	items map[string]*mnu.Item
}

func newStubMenuRepo() *stubMenuRepo {
	return &stubMenuRepo{items: make(map[string]*mnu.Item)}
}

func (s *stubMenuRepo) Create(ctx context.Context, it *mnu.Item) error {
	cp := *it
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.items[it.ID] = &cp
	return nil
}

func (s *stubMenuRepo) GetByID(ctx context.Context, id string) (*mnu.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, mnu.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *stubMenuRepo) List(ctx context.Context, q mnu.Query) ([]mnu.Item, error) {
	var out []mnu.Item
	for _, it := range s.items {
		if it.BusinessID != q.BusinessID {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// mismo comportamiento que el COALESCE(NULLIF(...)) del repo real
func (s *stubMenuRepo) Update(ctx context.Context, it *mnu.Item, updatePrice bool) error {
	cur, ok := s.items[it.ID]
	if !ok {
		return mnu.ErrNotFound
	}
	if it.Name != "" {
		cur.Name = it.Name
	}
	if it.Description != "" {
		cur.Description = it.Description
	}
	if it.Category != "" {
		cur.Category = it.Category
	}
	if updatePrice {
		cur.Price = it.Price
	}
	cur.Available = it.Available
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *stubMenuRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

type testEnv struct {
	router *gin.Engine
	orders *stubOrderRepo
	menus  *stubMenuRepo
	hub    *Hub
}

func newTestEnv(policy status.CancelPolicy) *testEnv {
	gin.SetMode(gin.TestMode)
	orders := newStubOrderRepo()
	menus := newStubMenuRepo()
	hub := newHub()
	nf := &notifier{hub: hub}
	return &testEnv{
		router: newRouter(orders, menus, hub, nf, policy),
		orders: orders,
		menus:  menus,
		hub:    hub,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v (body=%s)", err, w.Body.String())
	}
	return w, env
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)

	body := fmt.Sprintf(`{
		"business_id": %q, "user_id": %q,
		"customer_name": "María Pérez", "customer_phone": "+52 55 1234 5678",
		"delivery_address": "Av. Siempre Viva 742",
		"payment_method": "cash", "order_type": "delivery",
		"items": [
			{"name": "Tacos al pastor", "quantity": 2, "price": "45.50"},
			{"name": "Agua de horchata", "quantity": 1, "price": "25.00", "note": "sin hielo"}
		]
	}`, uuid.NewString(), uuid.NewString())

	w, env2 := doJSON(t, env.router, http.MethodPost, "/api/orders", body)
	if w.Code != http.StatusCreated || !env2.Success {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}

	var o ord.Order
	if err := json.Unmarshal(env2.Data, &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if o.Status != status.Pending {
		t.Fatalf("new order must start pending, got %s", o.Status)
	}
	if o.Total.String() != "116" && o.Total.String() != "116.00" {
		t.Fatalf("total: want 116.00, got %s", o.Total.String())
	}
	if len(o.StatusHistory) != 1 || o.StatusHistory[0].Status != status.Pending {
		t.Fatalf("history must have exactly the creation entry: %+v", o.StatusHistory)
	}
	if len(env.orders.orders) != 1 {
		t.Fatalf("order not persisted")
	}
}

func TestCreateOrder_Invalid(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)

	cases := []struct {
		name string
		body string
	}{
		{"no items", `{"business_id":"b1","user_id":"u1","order_type":"pickup","items":[]}`},
		{"bad quantity", `{"business_id":"b1","user_id":"u1","order_type":"pickup","items":[{"name":"x","quantity":0,"price":"1.00"}]}`},
		{"negative price", `{"business_id":"b1","user_id":"u1","order_type":"pickup","items":[{"name":"x","quantity":1,"price":"-1.00"}]}`},
		{"bad order type", `{"business_id":"b1","user_id":"u1","order_type":"drone","items":[{"name":"x","quantity":1,"price":"1.00"}]}`},
		{"delivery without address", `{"business_id":"b1","user_id":"u1","order_type":"delivery","items":[{"name":"x","quantity":1,"price":"1.00"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env2 := doJSON(t, env.router, http.MethodPost, "/api/orders", tc.body)
			if w.Code != http.StatusBadRequest || env2.Success {
				t.Fatalf("want 400 failure envelope, got %d %s", w.Code, w.Body.String())
			}
		})
	}
}

func seedOrder(env *testEnv, st status.Status) *ord.Order {
	now := time.Now().UTC()
	o := &ord.Order{
		ID: uuid.NewString(), BusinessID: "biz-1", UserID: "user-1",
		Status: st, OrderType: status.OrderTypeDelivery,
		CreatedAt: now, UpdatedAt: now,
		StatusHistory: []ord.HistoryEntry{{Status: st, Timestamp: now}},
	}
	env.orders.orders[o.ID] = o
	return o
}

func TestUpdateStatus_OK(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	o := seedOrder(env, status.Pending)

	w, env2 := doJSON(t, env.router, http.MethodPatch,
		"/api/orders/"+o.ID+"/status", `{"status":"accepted","note":"Confirmado"}`)
	if w.Code != http.StatusOK || !env2.Success {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}

	var got ord.Order
	if err := json.Unmarshal(env2.Data, &got); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if got.Status != status.Accepted || len(got.StatusHistory) != 2 {
		t.Fatalf("status/history wrong: %s %d", got.Status, len(got.StatusHistory))
	}
	if got.StatusHistory[1].Note != "Confirmado" {
		t.Fatalf("note not recorded: %+v", got.StatusHistory[1])
	}
}

func TestUpdateStatus_IllegalTransitionIs409(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	o := seedOrder(env, status.Pending)

	w, env2 := doJSON(t, env.router, http.MethodPatch,
		"/api/orders/"+o.ID+"/status", `{"status":"ready"}`)
	if w.Code != http.StatusConflict || env2.Success {
		t.Fatalf("want 409 failure envelope, got %d %s", w.Code, w.Body.String())
	}
	if env.orders.orders[o.ID].Status != status.Pending {
		t.Fatalf("rejected transition must not be applied")
	}
}

func TestUpdateStatus_CancelDependsOnPolicy(t *testing.T) {
	strict := newTestEnv(status.CancelFromPending)
	o := seedOrder(strict, status.Preparing)
	w, _ := doJSON(t, strict.router, http.MethodPatch,
		"/api/orders/"+o.ID+"/status", `{"status":"cancelled"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("strict policy: want 409, got %d", w.Code)
	}

	open := newTestEnv(status.CancelFromAnyActive)
	o2 := seedOrder(open, status.Preparing)
	w2, _ := doJSON(t, open.router, http.MethodPatch,
		"/api/orders/"+o2.ID+"/status", `{"status":"cancelled"}`)
	if w2.Code != http.StatusOK {
		t.Fatalf("any_active policy: want 200, got %d", w2.Code)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	w, _ := doJSON(t, env.router, http.MethodPatch,
		"/api/orders/"+uuid.NewString()+"/status", `{"status":"accepted"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
}

func TestListOrdersByBusiness(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	seedOrder(env, status.Pending)
	seedOrder(env, status.Ready)

	w, env2 := doJSON(t, env.router, http.MethodGet, "/api/orders/business/biz-1", "")
	if w.Code != http.StatusOK || !env2.Success {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
	var list []ord.Order
	if err := json.Unmarshal(env2.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 orders, got %d", len(list))
	}
}

func TestMenu_CRUD(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)

	// create
	w, env2 := doJSON(t, env.router, http.MethodPost, "/api/menu/business/biz-1",
		`{"name":"Tacos al pastor","description":"Orden de 5","price":"45.50","category":"tacos"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: want 201, got %d %s", w.Code, w.Body.String())
	}
	var it mnu.Item
	if err := json.Unmarshal(env2.Data, &it); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if !it.Available {
		t.Fatalf("items default to available")
	}

	// list
	w, env2 = doJSON(t, env.router, http.MethodGet, "/api/menu/business/biz-1?q=tacos", "")
	var list []mnu.Item
	_ = json.Unmarshal(env2.Data, &list)
	if w.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: want one item, got %d %s", w.Code, w.Body.String())
	}

	// partial update without price
	w, env2 = doJSON(t, env.router, http.MethodPut, "/api/menu/"+it.ID,
		`{"description":"Orden de 5 con piña","available":false}`)
	var upd mnu.Item
	_ = json.Unmarshal(env2.Data, &upd)
	if w.Code != http.StatusOK || upd.Price != "45.5" && upd.Price != "45.50" {
		t.Fatalf("update must keep price: %d %s", w.Code, w.Body.String())
	}
	if upd.Available || upd.Description != "Orden de 5 con piña" {
		t.Fatalf("partial update not applied: %+v", upd)
	}

	// delete
	w, _ = doJSON(t, env.router, http.MethodDelete, "/api/menu/"+it.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: want 200, got %d", w.Code)
	}
	w, _ = doJSON(t, env.router, http.MethodDelete, "/api/menu/"+it.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: want 404, got %d", w.Code)
	}
}

func TestCreateOrder_PublishesToBusinessRoom(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	ch, leave := env.hub.join("business:biz-9")
	defer leave()

	body := `{"business_id":"biz-9","user_id":"u1","order_type":"pickup",
		"payment_method":"cash",
		"items":[{"name":"Torta","quantity":1,"price":"65.00"}]}`
	w, _ := doJSON(t, env.router, http.MethodPost, "/api/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}

	select {
	case msg := <-ch:
		if msg.event != "order:new" {
			t.Fatalf("want order:new, got %s", msg.event)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published to the business room")
	}
}

func TestStream_DeliversPublishedEvents(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/api/orders/stream?scope=business&id=biz-1", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("subscribe: status %d", res.StatusCode)
	}

	// publish until the subscriber sees it; the room registration races the
	// first publish otherwise
	stopPublish := make(chan struct{})
	go func() {
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				env.hub.publish("business:biz-1", "order:status_update",
					statusUpdatePayload{OrderID: "o1", NewStatus: status.Accepted, Timestamp: time.Now().UTC()})
			case <-stopPublish:
				return
			}
		}
	}()
	defer close(stopPublish)

	sc := bufio.NewScanner(res.Body)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "event: order:status_update" {
			return // delivered
		}
	}
	t.Fatalf("stream closed without delivering the event: %v", sc.Err())
}

func TestStream_RejectsBadScope(t *testing.T) {
	env := newTestEnv(status.CancelFromPending)
	w, env2 := doJSON(t, env.router, http.MethodGet, "/api/orders/stream?scope=planet&id=x", "")
	if w.Code != http.StatusBadRequest || env2.Success {
		t.Fatalf("want 400 failure envelope, got %d", w.Code)
	}
}
