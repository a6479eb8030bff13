package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/zuul/internal/web/service"
	"github.com/aussiebroadwan/zuul/internal/web/session"
	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

type ProfileHandler struct {
	Profiles *service.ProfileClient
}

// HandleMe returns the Usermap record of the logged in user.
//
//	@Summary		Get own profile
//	@Description	Reads the Usermap record of the logged in user with their stored access token.
//	@Description	An expired access token is refreshed once before the request is retried.
//	@Tags			Profile
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	map[string]any	"Usermap person record"
//	@Failure		401	{object}	ErrorResponse	"Not logged in or the tokens can no longer be refreshed"
//	@Failure		502	{object}	ErrorResponse	"Usermap API error"
//	@Router			/api/v1/me/profile [get].
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	h.serve(w, r, user.ID())
}

// HandlePerson returns the Usermap record of another person.
//
//	@Summary		Get a profile
//	@Description	Reads the Usermap record of username on behalf of the logged in user.
//	@Tags			Profile
//	@Security		SessionCookie
//	@Produce		json
//	@Param			username	path		string			true	"Username"
//	@Success		200			{object}	map[string]any	"Usermap person record"
//	@Failure		401			{object}	ErrorResponse	"Not logged in or the tokens can no longer be refreshed"
//	@Failure		404			{object}	ErrorResponse	"Unknown person"
//	@Failure		502			{object}	ErrorResponse	"Usermap API error"
//	@Router			/api/v1/people/{username} [get].
func (h *ProfileHandler) HandlePerson(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.PathValue("username"))
}

func (h *ProfileHandler) serve(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	user, _ := UserFromContext(ctx)

	body, err := h.Profiles.FetchProfile(ctx, session.FromContext(ctx), user, username)
	if err != nil {
		slogx.FromContext(ctx).Warn("profile request failed", "username", username, "kind", service.ErrorKind(err), "err", err)
		httpx.WriteJSON(w, profileErrorStatus(err), ErrorResponse{
			Error:            service.ErrorKind(err),
			ErrorDescription: service.FormatError(err),
		})
		return
	}

	httpx.WriteBody(w, http.StatusOK, "application/json", []byte(body))
}

func profileErrorStatus(err error) int {
	var refreshErr *service.RefreshFailedError
	var unexpected *service.UnexpectedResponseError

	switch {
	case errors.Is(err, service.ErrNoToken),
		errors.Is(err, service.ErrNoRefreshToken),
		errors.As(err, &refreshErr):
		return http.StatusUnauthorized
	case errors.As(err, &unexpected) && unexpected.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
