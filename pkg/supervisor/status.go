package supervisor

import "github.com/arrowgate/chessd/pkg/apperr"

// Status returns the live or recently finished state of a move request, as
// polled by GET /api/move/status/:id. It returns apperr.UnknownRequestIDError
// once the request has been evicted or never existed.
func (s *Supervisor) Status(id string) (RequestState, error) {
	r, ok := s.requests.get(id)
	if !ok {
		return RequestState{}, apperr.UnknownRequestIDError(id)
	}
	return r, nil
}
