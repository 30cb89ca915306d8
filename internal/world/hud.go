package world

import "github.com/farmtotable/arena"

// StatusLine formats the HUD line in the scratch arena. The string stays
// valid until EndFrame.
func (w *World) StatusLine() (string, error) {
	if w.phase == PhaseGameOver {
		return arena.Sprintf(w.scratch, "GAME OVER  day %d  stone %d  fiber %d", w.day, w.inv.Stone, w.inv.Fiber)
	}
	hour, minute := w.TimeOfDay()
	return arena.Sprintf(w.scratch, "Day %d %02d:%02d  Energy %d/%d  Stone %d  Fiber %d",
		w.day, hour, minute, w.energy, w.cfg.MaxEnergy, w.inv.Stone, w.inv.Fiber)
}

// HUD passes each HUD line to draw. Lines are built inside a scratch
// checkpoint and must not be retained after draw returns.
func (w *World) HUD(draw func(line string)) error {
	return w.scratch.Scoped(func() error {
		status, err := w.StatusLine()
		if err != nil {
			return err
		}
		draw(status)

		counts := w.Counts()
		line, err := arena.Sprintf(w.scratch, "Rocks %d  Weeds %d  Drops %d  Player %s",
			counts[KindRock], counts[KindWeed], counts[KindDrop], w.player)
		if err != nil {
			return err
		}
		draw(line)
		return nil
	})
}

// EndFrame discards every scratch allocation of the frame.
func (w *World) EndFrame() {
	w.scratch.Reset()
}

// TimeOfDay maps the day clock onto a 24 hour dial.
func (w *World) TimeOfDay() (hour, minute int) {
	minutes := int(w.clock / w.cfg.DayLength * 24 * 60)
	return minutes / 60, minutes % 60
}
