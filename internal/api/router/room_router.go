package router

import (
	"net/http"

	"classroom-backend/internal/api"
	"classroom-backend/internal/api/endpoints"
	"classroom-backend/internal/api/middleware"
)

// RoomRoutes registers the read-only room introspection endpoints. They
// require a teacher bearer token whenever identities are verified.
func RoomRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		roomEndpoints := endpoints.NewRoomEndpoints(s.Hub(), prefix)
		requireTeacher := middleware.RequireTeacher(s.Verifier())
		mux.HandleFunc(prefix+"/rooms", s.MakeHTTPHandleFunc(roomEndpoints.Rooms, requireTeacher))
		mux.HandleFunc(prefix+"/rooms/", s.MakeHTTPHandleFunc(roomEndpoints.Room, requireTeacher))
	}
}
