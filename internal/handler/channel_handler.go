/*
Package handler provides the HTTP handlers and routing setup for the
NexChat relay.

This file covers the channel document endpoints: create, whole-document
fetch, and whole-document replace. The relay treats the document as an
opaque JSON value; it validates shape and size, never content. Replace
is unconditional, concurrent writers race and the last one wins.
*/
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/logx"
	"nexchat/internal/pkg/randx"
	"nexchat/internal/pkg/req"
	"nexchat/internal/pkg/resp"
)

// HandleCreateChannel provisions a new channel. The optional request
// body becomes the initial document; an empty body starts the channel
// with an empty JSON object.
func HandleCreateChannel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := json.RawMessage("{}")

		if r.ContentLength != 0 {
			if customErr := req.BindJSON(w, r, &doc); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
		}

		code, err := randx.ChannelCode()
		if err != nil {
			logx.Error(err, "Failed to generate channel code")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Channels.Create(r.Context(), code, doc); err != nil {
			resp.RespondError(w, r, asCustomError(err))
			return
		}

		logx.Info("Channel created", "channel", code)
		resp.RespondSuccess(w, r, map[string]any{"channel": code})
	}
}

// HandleGetChannel returns the channel's document verbatim. The sync
// engine consumes this response directly, so the document is sent bare,
// without the response envelope.
func HandleGetChannel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !randx.IsValidChannelCode(code) {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelCodeInvalid))
			return
		}

		doc, err := deps.Channels.Get(r.Context(), code)
		if err != nil {
			logx.Error(err, "Failed to load channel document", "channel", code)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if doc == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelNotFound))
			return
		}

		resp.RespondRaw(w, r, doc)
	}
}

// HandleReplaceChannel overwrites the channel's document with the
// request body.
func HandleReplaceChannel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !randx.IsValidChannelCode(code) {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelCodeInvalid))
			return
		}

		var doc json.RawMessage
		if customErr := req.BindJSON(w, r, &doc); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Channels.Replace(r.Context(), code, doc); err != nil {
			resp.RespondError(w, r, asCustomError(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// asCustomError unwraps a store error into its CustomError, or maps it
// to the generic failure code.
func asCustomError(err error) *errs.CustomError {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	logx.Error(err, "Channel store failure")
	return errs.NewError(errs.ErrUnknown)
}
