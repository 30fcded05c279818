package hanabi

// dispatcher routes decoded hub messages to registered callbacks.
// Unset callbacks drop their events.
type dispatcher struct {
	onStateChange func(State)
	onSnapshot    func(Snapshot)
	onDanmaku     func(DanmakuEvent)
	onFirework    func(FireworkEvent)
	onError       func(error)
}

func (d *dispatcher) fireStateChange(s State) {
	if d.onStateChange != nil {
		d.onStateChange(s)
	}
}

func (d *dispatcher) fireSnapshot(s Snapshot) {
	if d.onSnapshot != nil {
		d.onSnapshot(s)
	}
}

func (d *dispatcher) fireDanmaku(ev DanmakuEvent) {
	if d.onDanmaku != nil {
		d.onDanmaku(ev)
	}
}

func (d *dispatcher) fireFirework(ev FireworkEvent) {
	if d.onFirework != nil {
		d.onFirework(ev)
	}
}

func (d *dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
