package admission

// ticketHeap orders pending tickets by admission rank: highest score first,
// ties broken by arrival time and then submission sequence. It implements
// container/heap and is guarded by the controller's mutex.
type ticketHeap[T any] []*Ticket[T]

func (h ticketHeap[T]) Len() int { return len(h) }

func (h ticketHeap[T]) Less(i, j int) bool { return h[i].beats(h[j]) }

func (h ticketHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *ticketHeap[T]) Push(x any) {
	*h = append(*h, x.(*Ticket[T]))
}

func (h *ticketHeap[T]) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
