package http

import (
	"sync"

	"outreach-console/internal/domain"
)

// Redirect es la última navegación forzada por la sesión.
type Redirect struct {
	Path   string                `json:"path"`
	Notice *domain.BlockedNotice `json:"state"`
}

// NoticeBoard implementa session.Navigator para la consola: guarda la redirección
// pendiente hasta que GET /login la consume.
type NoticeBoard struct {
	mu      sync.Mutex
	pending *Redirect
}

func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{}
}

func (b *NoticeBoard) Navigate(path string, notice *domain.BlockedNotice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = &Redirect{Path: path, Notice: notice}
}

// Peek devuelve la redirección pendiente sin consumirla.
func (b *NoticeBoard) Peek() (Redirect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Redirect{}, false
	}
	return *b.pending, true
}

func (b *NoticeBoard) Consume() (Redirect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Redirect{}, false
	}
	r := *b.pending
	b.pending = nil
	return r, true
}
