package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/klabast/wb-services/groupie-dates/internal/artists"
	"go.uber.org/zap"
)

// ArtistsTitle is the title of the artist pages
const ArtistsTitle = "Groupie Tracker: Artists"

// HandleArtists lists the artists from the upstream API
func (s *Server) HandleArtists(w http.ResponseWriter, r *http.Request) {
	list, err := s.artists.List(r.Context())
	if err != nil {
		s.logger.Error("Error fetching artists", zap.Error(err))
		http.Error(w, ErrArtistsUpstream, http.StatusBadGateway)
		return
	}

	doc, body := newPage(ArtistsTitle, "Artists")
	body.AppendChild(artists.ListNode(list))
	s.writePage(w, doc)
}

// HandleArtist shows one artist
// URL: /artist/{id}
func (s *Server) HandleArtist(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		http.Error(w, ErrInvalidArtist, http.StatusBadRequest)
		return
	}

	artist, err := s.artists.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, artists.ErrNotFound) {
			http.Error(w, ErrArtistNotFound, http.StatusNotFound)
			return
		}
		s.logger.Error("Error fetching artist", zap.Int("id", id), zap.Error(err))
		http.Error(w, ErrArtistsUpstream, http.StatusBadGateway)
		return
	}

	doc, body := newPage(ArtistsTitle, "Artist")
	body.AppendChild(artists.DetailNode(artist))
	s.writePage(w, doc)
}
