package engine

import (
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/wesleyzhao/duck-game/internal/script"
	"github.com/wesleyzhao/duck-game/internal/world"
)

// CheatCode unlocks the privileged score mutations for the session.
const CheatCode = "quack-level-99"

const (
	defaultEntitySize  = 30
	defaultEntityColor = "yellow"
)

// api is the capability surface: the one write path a script has into the
// world. Every mutating method applies its effect immediately and records
// a Change whose Reverse was built from the pre-mutation snapshot, so the
// change list is always sufficient to roll the world back.
//
// One api is built per execution and discarded with it.
type api struct {
	eng     *Engine
	w       *world.World
	changes []Change
	says    []string
	logs    []string
}

func newAPI(e *Engine) *api {
	return &api{eng: e, w: e.world}
}

// install binds the surface as a "game" map in the interpreter's globals.
// Scripts reach the world only through these natives; nothing else crosses
// the boundary.
func (a *api) install(in *script.Interp) {
	game := script.NewMap()
	bind := func(name string, fn func(args []script.Value) (script.Value, error)) {
		game.Set(name, script.Value{
			Tag:  script.VTFun,
			Data: &script.Fun{Name: "game." + name, Native: fn},
		})
	}

	bind("create", a.create)
	bind("update", a.update)
	bind("remove", a.remove)
	bind("get", a.get)
	bind("list", a.list)
	bind("find", a.find)
	bind("movePlayer", a.movePlayer)
	bind("teleportPlayer", a.teleportPlayer)
	bind("setPlayerSpeed", a.setPlayerSpeed)
	bind("addPoints", a.addPoints)
	bind("player", a.playerInfo)
	bind("score", a.score)
	bind("setSkyColor", a.setSkyColor)
	bind("setGroundColor", a.setGroundColor)
	bind("worldInfo", a.worldInfo)
	bind("addBehavior", a.addBehavior)
	bind("removeBehavior", a.removeBehavior)
	bind("say", a.say)
	bind("log", a.logMsg)
	bind("random", a.random)
	bind("distance", a.distance)
	bind("enableCheats", a.enableCheats)

	in.Register("game", script.Map(game))
}

func (a *api) record(c Change) {
	a.changes = append(a.changes, c)
}

// clean canonicalizes script-supplied text before it enters the world or
// a user-facing message. Generated scripts arrive with mixed Unicode
// forms; NFC keeps name lookups and stored strings comparable.
func clean(s string) string {
	return norm.NFC.String(s)
}

// --- entity mutations ---

func (a *api) create(args []script.Value) (script.Value, error) {
	kind, err := argStr(args, 0, "kind")
	if err != nil {
		return script.Value{}, err
	}
	name, err := argStr(args, 1, "name")
	if err != nil {
		return script.Value{}, err
	}

	ent := world.Entity{
		ID:    a.eng.ids.NewID(),
		Seq:   a.w.NextSeq(),
		Kind:  clean(kind),
		Name:  clean(name),
		Size:  defaultEntitySize,
		Color: defaultEntityColor,
	}
	if len(args) > 2 {
		fields, err := argMap(args, 2, "fields")
		if err != nil {
			return script.Value{}, err
		}
		if err := a.applyEntityFields(&ent, fields); err != nil {
			return script.Value{}, err
		}
	}

	a.w.PutEntity(ent)
	a.record(Change{
		Kind:        "create",
		Description: fmt.Sprintf("created %s %q", ent.Kind, ent.Name),
		Forward:     Mutation{Op: OpPutEntity, Entity: &ent},
		Reverse:     Mutation{Op: OpRemoveEntity, EntityID: ent.ID},
	})
	return script.Str(ent.ID), nil
}

func (a *api) update(args []script.Value) (script.Value, error) {
	id, err := argStr(args, 0, "id")
	if err != nil {
		return script.Value{}, err
	}
	fields, err := argMap(args, 1, "fields")
	if err != nil {
		return script.Value{}, err
	}

	before, ok := a.w.Entity(id)
	if !ok {
		a.eng.logger.Debug("update: no such entity", "id", id)
		return script.Bool(false), nil
	}
	after := before.Clone()
	if err := a.applyEntityFields(&after, fields); err != nil {
		return script.Value{}, err
	}

	a.w.PutEntity(after)
	a.record(Change{
		Kind:        "update",
		Description: fmt.Sprintf("updated %s %q", after.Kind, after.Name),
		Forward:     Mutation{Op: OpSetEntity, Entity: &after},
		Reverse:     Mutation{Op: OpSetEntity, Entity: &before},
	})
	return script.Bool(true), nil
}

func (a *api) remove(args []script.Value) (script.Value, error) {
	id, err := argStr(args, 0, "id")
	if err != nil {
		return script.Value{}, err
	}

	before, ok := a.w.Entity(id)
	if !ok {
		a.eng.logger.Debug("remove: no such entity", "id", id)
		return script.Bool(false), nil
	}

	a.w.RemoveEntity(id)
	a.record(Change{
		Kind:        "remove",
		Description: fmt.Sprintf("removed %s %q", before.Kind, before.Name),
		Forward:     Mutation{Op: OpRemoveEntity, EntityID: id},
		Reverse:     Mutation{Op: OpPutEntity, Entity: &before},
	})
	return script.Bool(true), nil
}

func (a *api) addBehavior(args []script.Value) (script.Value, error) {
	return a.mutateBehavior(args, "addBehavior", func(ent *world.Entity, b string) bool {
		if ent.HasBehavior(b) {
			return false
		}
		ent.Behaviors = append(ent.Behaviors, b)
		return true
	})
}

func (a *api) removeBehavior(args []script.Value) (script.Value, error) {
	return a.mutateBehavior(args, "removeBehavior", func(ent *world.Entity, b string) bool {
		for i, have := range ent.Behaviors {
			if have == b {
				ent.Behaviors = append(ent.Behaviors[:i], ent.Behaviors[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (a *api) mutateBehavior(args []script.Value, name string, apply func(*world.Entity, string) bool) (script.Value, error) {
	id, err := argStr(args, 0, "id")
	if err != nil {
		return script.Value{}, err
	}
	behavior, err := argStr(args, 1, "behavior")
	if err != nil {
		return script.Value{}, err
	}
	behavior = clean(behavior)

	before, ok := a.w.Entity(id)
	if !ok {
		a.eng.logger.Debug(name+": no such entity", "id", id)
		return script.Bool(false), nil
	}
	after := before.Clone()
	if !apply(&after, behavior) {
		// Already in the requested state; nothing to record.
		return script.Bool(false), nil
	}

	a.w.PutEntity(after)
	a.record(Change{
		Kind:        "behavior",
		Description: fmt.Sprintf("%s %q on %s %q", name, behavior, after.Kind, after.Name),
		Forward:     Mutation{Op: OpSetEntity, Entity: &after},
		Reverse:     Mutation{Op: OpSetEntity, Entity: &before},
	})
	return script.Bool(true), nil
}

// applyEntityFields copies recognized keys from a field map onto an
// entity. Unknown keys are skipped with a debug log rather than failing
// the script.
func (a *api) applyEntityFields(ent *world.Entity, fields *script.MapObject) error {
	for _, key := range fields.Keys {
		v, _ := fields.Get(key)
		switch key {
		case "name", "kind", "color":
			s, err := v.AsStr()
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			s = clean(s)
			switch key {
			case "name":
				ent.Name = s
			case "kind":
				ent.Kind = s
			case "color":
				ent.Color = s
			}
		case "x", "y", "size", "speed":
			n, err := v.AsNum()
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			switch key {
			case "x":
				ent.X = n
			case "y":
				ent.Y = n
			case "size":
				ent.Size = n
			case "speed":
				ent.Speed = n
			}
		default:
			a.eng.logger.Debug("ignoring unknown entity field", "field", key)
		}
	}
	return nil
}

// --- player mutations ---

func (a *api) movePlayer(args []script.Value) (script.Value, error) {
	dx, err := argNum(args, 0, "dx")
	if err != nil {
		return script.Value{}, err
	}
	dy, err := argNum(args, 1, "dy")
	if err != nil {
		return script.Value{}, err
	}
	a.mutatePlayer("move", fmt.Sprintf("moved player by (%g, %g)", dx, dy), func(p *world.Player) {
		p.X += dx
		p.Y += dy
	})
	return script.Null(), nil
}

func (a *api) teleportPlayer(args []script.Value) (script.Value, error) {
	x, err := argNum(args, 0, "x")
	if err != nil {
		return script.Value{}, err
	}
	y, err := argNum(args, 1, "y")
	if err != nil {
		return script.Value{}, err
	}
	a.mutatePlayer("teleport", fmt.Sprintf("teleported player to (%g, %g)", x, y), func(p *world.Player) {
		p.X = x
		p.Y = y
	})
	return script.Null(), nil
}

func (a *api) setPlayerSpeed(args []script.Value) (script.Value, error) {
	n, err := argNum(args, 0, "speed")
	if err != nil {
		return script.Value{}, err
	}
	a.mutatePlayer("speed", fmt.Sprintf("set player speed to %g", n), func(p *world.Player) {
		p.Speed = n
	})
	return script.Null(), nil
}

// addPoints is gated behind the session cheat flag. Before the gate opens
// it mutates nothing, records nothing, and speaks a denial so the player
// sees why their score did not move.
func (a *api) addPoints(args []script.Value) (script.Value, error) {
	n, err := argNum(args, 0, "points")
	if err != nil {
		return script.Value{}, err
	}
	if !a.eng.cheats {
		a.eng.logger.Info("addPoints denied: cheats not enabled")
		a.says = append(a.says, "Nice try! Points can't be changed without the secret code.")
		return script.Bool(false), nil
	}
	a.mutatePlayer("points", fmt.Sprintf("added %g points", n), func(p *world.Player) {
		p.Score += int64(n)
	})
	return script.Bool(true), nil
}

func (a *api) mutatePlayer(kind, description string, apply func(*world.Player)) {
	before := a.w.Player()
	after := before.Clone()
	apply(&after)

	a.w.SetPlayer(after)
	a.record(Change{
		Kind:        kind,
		Description: description,
		Forward:     Mutation{Op: OpSetPlayer, Player: &after},
		Reverse:     Mutation{Op: OpSetPlayer, Player: &before},
	})
}

// --- settings mutations ---

func (a *api) setSkyColor(args []script.Value) (script.Value, error) {
	return a.setColor(args, "sky", func(s *world.Settings, c string) { s.SkyColor = c })
}

func (a *api) setGroundColor(args []script.Value) (script.Value, error) {
	return a.setColor(args, "ground", func(s *world.Settings, c string) { s.GroundColor = c })
}

func (a *api) setColor(args []script.Value, which string, apply func(*world.Settings, string)) (script.Value, error) {
	color, err := argStr(args, 0, "color")
	if err != nil {
		return script.Value{}, err
	}
	color = clean(color)

	before := a.w.Settings()
	after := before
	apply(&after, color)

	a.w.SetSettings(after)
	a.record(Change{
		Kind:        which,
		Description: fmt.Sprintf("set %s color to %q", which, color),
		Forward:     Mutation{Op: OpSetSettings, Settings: &after},
		Reverse:     Mutation{Op: OpSetSettings, Settings: &before},
	})
	return script.Null(), nil
}

// --- queries ---

func (a *api) get(args []script.Value) (script.Value, error) {
	id, err := argStr(args, 0, "id")
	if err != nil {
		return script.Value{}, err
	}
	ent, ok := a.w.Entity(id)
	if !ok {
		return script.Null(), nil
	}
	return entityValue(ent), nil
}

func (a *api) list(args []script.Value) (script.Value, error) {
	ents := a.w.Entities()
	elems := make([]script.Value, len(ents))
	for i, ent := range ents {
		elems[i] = entityValue(ent)
	}
	return script.ListOf(elems...), nil
}

func (a *api) find(args []script.Value) (script.Value, error) {
	name, err := argStr(args, 0, "name")
	if err != nil {
		return script.Value{}, err
	}
	id := a.w.FindByName(clean(name))
	if id == "" {
		return script.Null(), nil
	}
	return script.Str(id), nil
}

func (a *api) playerInfo(args []script.Value) (script.Value, error) {
	p := a.w.Player()
	m := script.NewMap()
	m.Set("x", script.Num(p.X))
	m.Set("y", script.Num(p.Y))
	m.Set("speed", script.Num(p.Speed))
	m.Set("score", script.Num(float64(p.Score)))
	return script.Map(m), nil
}

func (a *api) score(args []script.Value) (script.Value, error) {
	return script.Num(float64(a.w.Player().Score)), nil
}

func (a *api) worldInfo(args []script.Value) (script.Value, error) {
	s := a.w.Settings()
	m := script.NewMap()
	m.Set("skyColor", script.Str(s.SkyColor))
	m.Set("groundColor", script.Str(s.GroundColor))
	m.Set("entityCount", script.Num(float64(a.w.EntityCount())))
	return script.Map(m), nil
}

func entityValue(ent world.Entity) script.Value {
	behaviors := make([]script.Value, len(ent.Behaviors))
	for i, b := range ent.Behaviors {
		behaviors[i] = script.Str(b)
	}
	m := script.NewMap()
	m.Set("id", script.Str(ent.ID))
	m.Set("kind", script.Str(ent.Kind))
	m.Set("name", script.Str(ent.Name))
	m.Set("x", script.Num(ent.X))
	m.Set("y", script.Num(ent.Y))
	m.Set("size", script.Num(ent.Size))
	m.Set("speed", script.Num(ent.Speed))
	m.Set("color", script.Str(ent.Color))
	m.Set("behaviors", script.ListOf(behaviors...))
	return script.Map(m)
}

// --- communication and utilities ---

func (a *api) say(args []script.Value) (script.Value, error) {
	msg, err := argStr(args, 0, "message")
	if err != nil {
		return script.Value{}, err
	}
	a.says = append(a.says, clean(msg))
	return script.Null(), nil
}

func (a *api) logMsg(args []script.Value) (script.Value, error) {
	if len(args) < 1 {
		return script.Value{}, fmt.Errorf("log expects a message")
	}
	msg := args[0].ToString()
	a.logs = append(a.logs, msg)
	a.eng.logger.Info("script log", "message", msg)
	return script.Null(), nil
}

func (a *api) random(args []script.Value) (script.Value, error) {
	lo, err := argNum(args, 0, "min")
	if err != nil {
		return script.Value{}, err
	}
	hi, err := argNum(args, 1, "max")
	if err != nil {
		return script.Value{}, err
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return script.Num(lo + a.eng.rng.Float64()*(hi-lo)), nil
}

func (a *api) distance(args []script.Value) (script.Value, error) {
	idA, err := argStr(args, 0, "idA")
	if err != nil {
		return script.Value{}, err
	}
	idB, err := argStr(args, 1, "idB")
	if err != nil {
		return script.Value{}, err
	}
	ea, ok := a.w.Entity(idA)
	if !ok {
		return script.Null(), nil
	}
	eb, ok := a.w.Entity(idB)
	if !ok {
		return script.Null(), nil
	}
	return script.Num(math.Hypot(ea.X-eb.X, ea.Y-eb.Y)), nil
}

func (a *api) enableCheats(args []script.Value) (script.Value, error) {
	code, err := argStr(args, 0, "code")
	if err != nil {
		return script.Value{}, err
	}
	if code != CheatCode {
		a.eng.logger.Info("enableCheats denied: wrong code")
		return script.Bool(false), nil
	}
	a.eng.cheats = true
	a.eng.logger.Info("cheats enabled for session")
	return script.Bool(true), nil
}

// --- argument helpers ---

func argStr(args []script.Value, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, err := args[i].AsStr()
	if err != nil {
		return "", fmt.Errorf("argument %q: %w", name, err)
	}
	return s, nil
}

func argNum(args []script.Value, i int, name string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	n, err := args[i].AsNum()
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return n, nil
}

func argMap(args []script.Value, i int, name string) (*script.MapObject, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %q", name)
	}
	if args[i].Tag != script.VTMap {
		return nil, fmt.Errorf("argument %q: expected a map, got %s", name, args[i].Tag)
	}
	return args[i].Data.(*script.MapObject), nil
}
