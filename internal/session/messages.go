package session

// Text sent to players.
const (
	menuOptions = "1 - View Leaderboard\n2 - Play Game\n3 - Quit"

	msgGreeting = "Hello %s and welcome to a simple game of battleship."
	msgStarting = "Starting a new game."
	msgResuming = "Resuming the current game."
	msgBye      = "Goodbye!"

	msgHit  = "That's a hit!"
	msgMiss = "You missed!"
	msgOld  = "You already guessed this spot!"
	msgWon  = "Congratulations, you won!"
	msgLost = "You lost the game!"

	msgOutOfBounds    = "Row or column out of bounds."
	msgUnknownRequest = "Unknown request type"
	msgNameFirst      = "Please send your name first."
	msgNameTwice      = "Name already set for this connection."
	msgNameEmpty      = "Name must not be empty."
	msgNameChars      = "Name must not contain commas or line breaks."
	msgStartFirst     = "Start a game before guessing."
	msgRoundOver      = "That game is over. Start a new game from the menu."
	msgInternal       = "Internal error, please try again."
)
