// Package window implementa la ventana global de pedidos: un flag
// booleano versionado detrás de una interfaz chica (check/toggle/
// onChange) en lugar de estado global ambiente. La versión sirve para
// descartar broadcasts viejos del lado de los clientes.
package window

import "sync"

type ChangeEvent struct {
	Open    bool   `json:"open"`
	Version uint64 `json:"version"`
}

type Gate struct {
	mu      sync.RWMutex
	open    bool
	version uint64
	subs    []func(ChangeEvent)
}

func NewGate(open bool) *Gate {
	return &Gate{open: open}
}

// Check es una lectura pura del estado actual.
func (g *Gate) Check() ChangeEvent {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return ChangeEvent{Open: g.open, Version: g.version}
}

// Toggle es el único mutador. Aplica el cambio bajo el lock de
// escritura y recién después notifica a los suscriptores, para no
// hacer trabajo ajeno con el lock tomado.
func (g *Gate) Toggle(open bool) ChangeEvent {
	g.mu.Lock()
	g.open = open
	g.version++
	ev := ChangeEvent{Open: g.open, Version: g.version}
	subs := make([]func(ChangeEvent), len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
	return ev
}

// OnChange registra un suscriptor. Se invoca de forma síncrona en
// cada Toggle; si el suscriptor hace I/O debe despacharlo él mismo.
func (g *Gate) OnChange(fn func(ChangeEvent)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs = append(g.subs, fn)
}

// Guard ejecuta fn con el lock de lectura tomado. Lo usa create():
// el chequeo de ventana y el alta del pedido corren como unidad, así
// un Toggle(false) concurrente nunca deja pasar un create que empezó
// antes del cierre.
func (g *Gate) Guard(fn func(open bool) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(g.open)
}
