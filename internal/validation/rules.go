package validation

import (
	"fmt"
	"math"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
)

func checkOverlap(e *Engine, p *plan.Plan, emit emitFunc) {
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			var (
				prev    *plan.Session
				prevEnd = -1
			)
			for _, s := range d.Ordered() {
				if !s.Active() {
					continue
				}
				start, err := plan.ParseHora(s.Hora)
				if err != nil {
					continue
				}
				end := start + s.Duracion
				if prev != nil && start < prevEnd {
					msg := fmt.Sprintf("La sesion %s (%s) se solapa con %s (%s-%s)",
						s.Slot, s.Hora, prev.Slot, prev.Hora, plan.FormatHora(prevEnd))
					var fix command.Command
					label := ""
					if prevEnd+s.Duracion <= plan.MinutesPerDay {
						hora := plan.FormatHora(prevEnd)
						fix, _ = e.grid.EditSession(p, s.ID, slotgrid.SessionPatch{Hora: &hora})
						label = "Mover a las " + hora
					}
					emit(s.ID, msg, label, fix)
				}
				if end > prevEnd {
					prev, prevEnd = s, end
				}
			}
		}
	}
}

func checkVolume(e *Engine, p *plan.Plan, emit emitFunc) {
	for _, s := range p.Sessions() {
		for _, x := range s.Exercises {
			if x.Series > 0 && x.Reps > 0 {
				continue
			}
			var patch slotgrid.SlotPatch
			if x.Series <= 0 {
				patch.Series = slotgrid.Int(1)
			}
			if x.Reps <= 0 {
				patch.Reps = slotgrid.Int(1)
			}
			fix, _ := e.grid.EditSlot(p, x.ID, patch)
			msg := fmt.Sprintf("%s tiene %d series x %d repeticiones", x.ExerciseRef, x.Series, x.Reps)
			emit(x.ID, msg, "Fijar volumen minimo", fix)
		}
	}
}

func checkMaxSessions(e *Engine, p *plan.Plan, emit emitFunc) {
	if e.cfg.MaxSessionsPerWeek <= 0 {
		return
	}
	for _, w := range p.Weeks {
		n := 0
		for _, d := range w.Days {
			for _, s := range d.Sessions {
				if s.Active() {
					n++
				}
			}
		}
		if n > e.cfg.MaxSessionsPerWeek {
			msg := fmt.Sprintf("Semana %d: %d sesiones (maximo %d)", w.Index+1, n, e.cfg.MaxSessionsPerWeek)
			emit(fmt.Sprintf("w%d", w.Index), msg, "", nil)
		}
	}
}

func checkIntensity(e *Engine, p *plan.Plan, emit emitFunc) {
	if e.cfg.MinDailyLoad <= 0 {
		return
	}
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			var (
				load     float64
				weighted []*plan.ExerciseSlot
			)
			for _, s := range d.Ordered() {
				if !s.Active() {
					continue
				}
				// Slots with a non-positive volume are reported by
				// invalid-volume and left out of the load.
				for _, x := range s.Exercises {
					if x.Weight > 0 && x.Series > 0 && x.Reps > 0 {
						load += x.Load()
						weighted = append(weighted, x)
					}
				}
			}
			if len(weighted) == 0 || load >= e.cfg.MinDailyLoad {
				continue
			}
			pct := int(math.Ceil((e.cfg.MinDailyLoad/load - 1) * 100))
			factor := 1 + float64(pct)/100
			fix := command.NewComposite(fmt.Sprintf("increase intensity by %d%%", pct))
			for _, x := range weighted {
				c, _ := e.grid.EditSlot(p, x.ID, slotgrid.SlotPatch{Weight: slotgrid.Float(roundUpHalf(x.Weight * factor))})
				fix.Add(c)
			}
			msg := fmt.Sprintf("Carga del dia %.0f kg por debajo de %.0f kg", load, e.cfg.MinDailyLoad)
			emit(dayTarget(w.Index, d.Index), msg, fmt.Sprintf("Aumentar intensidad un %d%%", pct), fix)
		}
	}
}

func checkEmpty(e *Engine, p *plan.Plan, emit emitFunc) {
	for loc, s := range p.Sessions() {
		if !s.Active() || len(s.Exercises) > 0 {
			continue
		}
		fix, _ := e.grid.RemoveSession(p, s.ID)
		emit(s.ID, fmt.Sprintf("La sesion %s no tiene ejercicios", loc), "Eliminar sesion", fix)
	}
}

// roundUpHalf rounds kg up to the next 0.5 so scaled loads never fall
// short of the target. The epsilon absorbs float error in the factor.
func roundUpHalf(kg float64) float64 {
	return math.Ceil(kg*2-1e-9) / 2
}
