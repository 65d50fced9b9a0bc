package game

// Scene is the active screen of a client: *Lobby or *StageScene.
// Events are routed with KeyPressed, KeyReleased and Update; variants that do
// not handle an event ignore it.
type Scene interface {
	scene()
}

// Lobby is shown until the stage is loaded and the room has been joined.
// Remote players are tracked, but there is no controlled player yet.
type Lobby struct {
	Registry *Registry
}

// StageScene simulates the controlled player on a loaded stage.
type StageScene struct {
	Loop *Loop
}

func (*Lobby) scene() {}
func (*StageScene) scene() {}

func NewStageScene(loop *Loop) *StageScene { return &StageScene{Loop: loop} }

func KeyPressed(s Scene, key string) {
	switch s := s.(type) {
	case *StageScene:
		s.Loop.Player().KeyPressed(key)
	}
}

func KeyReleased(s Scene, key string) {
	switch s := s.(type) {
	case *StageScene:
		s.Loop.Player().KeyReleased(key)
	}
}

func Update(s Scene) {
	switch s := s.(type) {
	case *StageScene:
		s.Loop.Tick()
	}
}

// Receive applies a received player list to the scene's registry.
func Receive(s Scene, players []EntityMetadata) {
	switch s := s.(type) {
	case *Lobby:
		if s.Registry != nil {
			s.Registry.Apply(players)
		}
	case *StageScene:
		s.Loop.Registry().Apply(players)
	}
}

// Drawables returns what a renderer needs for the scene: the stage (nil in
// the lobby) and the entities to draw, remote players first.
func Drawables(s Scene) (*Stage, []EntityMetadata) {
	switch s := s.(type) {
	case *Lobby:
		if s.Registry == nil {
			return nil, nil
		}
		return nil, s.Registry.Others()
	case *StageScene:
		return s.Loop.Stage(), append(s.Loop.Registry().Others(), s.Loop.Player().Metadata())
	}
	return nil, nil
}
