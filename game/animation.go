package game

// SpriteTable maps each state to its ordered animation frames.
type SpriteTable map[PlayerState][]int

// spriteTableFor returns the frames of a character skin. Unknown skins fall
// back to blue.
func spriteTableFor(c Character) SpriteTable {
	switch c {
	case CharacterOrange:
		return SpriteTable{
			StateStanding: {402},
			StateWalking:  {402, 403, 404, 405},
			StateFalling:  {406},
			StateDead:     {407},
		}
	case CharacterGreen:
		return SpriteTable{
			StateStanding: {450},
			StateWalking:  {450, 451, 452, 453},
			StateFalling:  {454},
			StateDead:     {455},
		}
	default:
		return SpriteTable{
			StateStanding: {354},
			StateWalking:  {354, 355, 356, 357},
			StateFalling:  {358},
			StateDead:     {359},
		}
	}
}

// Frame returns the sprite for state at the animation cursor, 0 when the state has no frames.
func (t SpriteTable) Frame(state PlayerState, index int) int {
	frames := t[state]
	if len(frames) == 0 {
		return 0
	}
	return frames[index%len(frames)]
}

// StandingSprite is the first frame a freshly spawned character shows.
func StandingSprite(c Character) int {
	return spriteTableFor(c).Frame(StateStanding, 0)
}
