package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var errMalformedRequest = errors.New("invalid request body")

// User is one websocket connection registered in the hub.
type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) ID() uint {
	return u.id
}

func (u *User) readRequest() (*routeRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &routeRequest{}
	decodeErr := json.NewDecoder(r).Decode(req)
	// the rest of the frame must be consumed before the next one can be read
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRequest, decodeErr)
	}
	return req, nil
}

// Route reads one route request frame and writes back the route or an error frame.
// A returned error means the connection is unusable.
func (u *User) Route(ctx context.Context) error {
	req, err := u.readRequest()
	if errors.Is(err, errMalformedRequest) {
		return u.writeError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	if err := u.hub.validate.Struct(req); err != nil {
		vv := translateError(err, u.hub.trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		return u.writeError(http.StatusBadRequest, fmt.Sprintf("validation error: %v", vvString))
	}

	ctx, cancel := context.WithTimeout(ctx, u.hub.timeout)
	defer cancel()

	itinerary, err := u.hub.routingService.Route(ctx, req.start(), req.end())
	if err != nil {
		return u.writeError(statusCodeOf(err), errorMessage(err))
	}

	return u.write(NewRouteResponse(itinerary))
}

func (u *User) writeError(status int, message string) error {
	return u.write(envelope{"error": map[string]string{
		"code":    http.StatusText(status),
		"message": message,
	}})
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

type Hub struct {
	mu  sync.RWMutex
	seq uint
	us  []*User
	ns  map[uint]*User

	routingService RoutingService
	timeout        time.Duration
	validate       *validator.Validate
	trans          ut.Translator
}

func NewHub(routingService RoutingService, timeout time.Duration) *Hub {
	validate, trans := newValidator()
	return &Hub{
		ns:             make(map[uint]*User),
		us:             make([]*User, 0),
		routingService: routingService,
		timeout:        timeout,
		validate:       validate,
		trans:          trans,
	}
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

// Remove unregisters user and closes its connection. Removing an unknown user is a no-op.
func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(user)
}

func (h *Hub) remove(user *User) {
	if _, ok := h.ns[user.id]; !ok {
		return
	}
	delete(h.ns, user.id)

	// us is sorted by id since ids are handed out in increasing order
	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs

	user.conn.Close()
}

func (h *Hub) RemoveAllUser() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for len(h.us) > 0 {
		h.remove(h.us[0])
	}
}

func (h *Hub) NumberOfUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}
