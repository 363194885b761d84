package guessdto

type GuessRequest struct {
	Guess          string `json:"guess"`
	AssignedUserID string `json:"assigned_user_id"`
}

type ChatTurn struct {
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ChatRequest struct {
	Message             string     `json:"message"`
	AssignedUserID      string     `json:"assigned_user_id"`
	ConversationHistory []ChatTurn `json:"conversation_history"`
}

type CreateProfileRequest struct {
	DisplayName           string `json:"display_name"`
	College               string `json:"college"`
	FavouriteHobby        string `json:"favourite_hobby"`
	FavouriteDish         string `json:"favourite_dish"`
	FavouriteSportsperson string `json:"favourite_sportsperson"`
	BestMovie             string `json:"best_movie"`
	RelationshipStatus    string `json:"relationship_status"`
	Additional            string `json:"additional"`
}
