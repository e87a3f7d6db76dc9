package handlers

const (
	txtAdminOnly    = "Only the admin can do this."
	txtTrendingBusy = "Trending update is already running."
)
