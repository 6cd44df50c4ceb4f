package handlers

import (
	"net/http"

	"github.com/IlyaVolvo/spin-master-sub001/brackets"
	"github.com/IlyaVolvo/spin-master-sub001/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type resultInput struct {
	SetsA    int  `json:"sets_a"`
	SetsB    int  `json:"sets_b"`
	ForfeitA bool `json:"forfeit_a"`
	ForfeitB bool `json:"forfeit_b"`
}

func (in resultInput) toResult() brackets.Result {
	return brackets.Result{
		SetsA:    in.SetsA,
		SetsB:    in.SetsB,
		ForfeitA: in.ForfeitA,
		ForfeitB: in.ForfeitB,
	}
}

// RecordBracketResult записывает результат на узел сетки по координате.
func (h *MatchHandler) RecordBracketResult(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := idParam(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	position, err := positionParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input resultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordBracketResult(r.Context(), tournamentID, round, position, input.toResult())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordFixtureResult записывает результат на заранее созданный матч
// кругового или швейцарского турнира.
func (h *MatchHandler) RecordFixtureResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input resultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordFixtureResult(r.Context(), matchID, input.toResult())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) EditResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input resultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.EditResult(r.Context(), matchID, input.toResult())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.matchService.DeleteResult(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
