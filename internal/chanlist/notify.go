package chanlist

import "sync"

// notifier delivers changes to observers on its own goroutine so that
// observers may call back into the List without deadlocking the queue.
type notifier struct {
	mu        sync.Mutex
	pending   []Change
	observers map[int]func(Change)
	nextID    int
	wake      chan struct{}
	quit      chan struct{}
	stopOnce  sync.Once
}

func newNotifier() *notifier {
	return &notifier{
		observers: make(map[int]func(Change)),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
}

func (n *notifier) add(fn func(Change)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.observers[id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.observers, id)
		n.mu.Unlock()
	}
}

// push queues c. It never blocks.
func (n *notifier) push(c Change) {
	n.mu.Lock()
	if len(n.observers) == 0 {
		n.mu.Unlock()
		return
	}
	n.pending = append(n.pending, c)
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) run() {
	for {
		select {
		case <-n.wake:
		case <-n.quit:
			return
		}
		for {
			n.mu.Lock()
			batch := n.pending
			n.pending = nil
			fns := make([]func(Change), 0, len(n.observers))
			for id := 0; id < n.nextID; id++ {
				if fn, ok := n.observers[id]; ok {
					fns = append(fns, fn)
				}
			}
			n.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, c := range batch {
				for _, fn := range fns {
					fn(c)
				}
			}
		}
	}
}

func (n *notifier) stop() {
	n.stopOnce.Do(func() { close(n.quit) })
}
