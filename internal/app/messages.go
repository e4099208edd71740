package app

// Messages shown to the user.
const (
	MsgValidatingSession = "Validating session..."
	MsgLocating          = "Retrieving your location..."

	MsgLoadingNearby = "Loading nearby jobs..."
	MsgNoNearby      = "No nearby job."
	MsgNearbyFailed  = "Cannot load nearby jobs."

	MsgLoadingFavorites = "Loading favorite items..."
	MsgNoFavorites      = "No favorite item."
	MsgFavoritesFailed  = "Cannot load favorite items."

	MsgLoadingRecommended = "Loading recommended items..."
	MsgNoRecommended      = "No recommended item. Make sure you have favorites."
	MsgRecommendedFailed  = "Cannot load recommended items."

	MsgLoginRejected = "Invalid username or password"

	MsgMissingField    = "Please fill in all field"
	MsgInvalidUsername = "Invalid username"
	MsgRegistered      = "Successfully registered"
	MsgUserExists      = "User already existed"
	MsgRegisterFailed  = "Failed to register"
)
