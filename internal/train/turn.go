package train

// Turn names whose parameters the next training step updates. The schedule is
// a strict two-state alternation with no path to consecutive same-state steps.
type Turn int

const (
	DiscriminatorTurn Turn = iota
	GeneratorTurn
)

func (t Turn) String() string {
	switch t {
	case DiscriminatorTurn:
		return "discriminator"
	case GeneratorTurn:
		return "generator"
	default:
		return "unknown"
	}
}

// Next returns the other turn.
func (t Turn) Next() Turn {
	if t == DiscriminatorTurn {
		return GeneratorTurn
	}
	return DiscriminatorTurn
}

// TurnForStep maps a step counter to its turn: even steps belong to the
// discriminator, odd steps to the generator.
func TurnForStep(step uint64) Turn {
	if step%2 == 0 {
		return DiscriminatorTurn
	}
	return GeneratorTurn
}
