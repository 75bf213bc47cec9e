package rest

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/inbucket/dumbster/pkg/extension/event"
	"github.com/inbucket/dumbster/pkg/message"
	"github.com/inbucket/dumbster/pkg/rest/model"
	"github.com/inbucket/dumbster/pkg/sanitize"
	"github.com/inbucket/dumbster/pkg/server/web"
	"github.com/inbucket/dumbster/pkg/storage"
	"github.com/inbucket/dumbster/pkg/stringutil"
	"github.com/rs/zerolog/log"
)

// MessageListV1 renders the headers of all stored messages.
func MessageListV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	metas, err := ctx.Manager.GetMetadata()
	if err != nil {
		return fmt.Errorf("failed to get messages: %w", err)
	}

	headers := make([]*model.JSONMessageHeaderV1, len(metas))
	for i, meta := range metas {
		headers[i] = metadataToHeader(meta)
	}
	return web.RenderJSON(w, headers)
}

// MessageShowV1 renders a particular message, with its body HTML sanitized.
func MessageShowV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	id := ctx.Vars["id"]
	msg, err := ctx.Manager.GetMessage(id)
	if errors.Is(err, storage.ErrNotExist) {
		http.NotFound(w, req)
		return nil
	}
	if err != nil {
		return fmt.Errorf("GetMessage(%q) failed: %w", id, err)
	}

	html, err := sanitize.HTML(msg.HTML())
	if err != nil {
		log.Warn().Str("module", "rest").Str("id", id).Err(err).Msg("HTML sanitizer failed")
		html = ""
	}

	atts := msg.Attachments()
	attachments := make([]*model.JSONMessageAttachmentV1, len(atts))
	for i, att := range atts {
		sum := md5.Sum(att.Content)
		attachments[i] = &model.JSONMessageAttachmentV1{
			FileName:    att.FileName,
			ContentType: att.ContentType,
			Size:        len(att.Content),
			MD5:         hex.EncodeToString(sum[:]),
		}
	}

	mimeErrs := msg.MIMEErrors()
	errs := make([]string, len(mimeErrs))
	for i, e := range mimeErrs {
		errs[i] = e.Error()
	}

	return web.RenderJSON(w,
		&model.JSONMessageV1{
			ID:          msg.ID,
			From:        stringutil.StringAddress(msg.From),
			To:          stringutil.StringAddressList(msg.To),
			Recipients:  msg.Recipients,
			Subject:     msg.Subject,
			Date:        msg.Date,
			PosixMillis: msg.Date.UnixMilli(),
			Size:        msg.Size,
			Header:      msg.Header(),
			Body: &model.JSONMessageBodyV1{
				Text:     msg.Text(),
				HTML:     html,
				TextHTML: web.TextToHTML(msg.Text()),
			},
			Attachments: attachments,
			Parts:       partsToJSON(msg.Parts()),
			Errors:      errs,
		})
}

// MessagePurgeV1 deletes all messages.
func MessagePurgeV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	if err := ctx.Manager.PurgeMessages(); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	log.Debug().Str("module", "rest").Msg("Purged all messages")

	return web.RenderJSON(w, "OK")
}

// MessageSourceV1 renders the raw source of a message, including headers, as text/plain.
func MessageSourceV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	id := ctx.Vars["id"]
	r, err := ctx.Manager.SourceReader(id)
	if errors.Is(err, storage.ErrNotExist) {
		http.NotFound(w, req)
		return nil
	}
	if err != nil {
		return fmt.Errorf("SourceReader(%q) failed: %w", id, err)
	}
	defer r.Close()

	w.Header().Set("Content-Type", "text/plain")
	_, err = io.Copy(w, r)
	return err
}

// MessageDeleteV1 removes a particular message.
func MessageDeleteV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	id := ctx.Vars["id"]
	err := ctx.Manager.RemoveMessage(id)
	if errors.Is(err, storage.ErrNotExist) {
		http.NotFound(w, req)
		return nil
	}
	if err != nil {
		return fmt.Errorf("RemoveMessage(%q) failed: %w", id, err)
	}

	return web.RenderJSON(w, "OK")
}

func metadataToHeader(meta *event.MessageMetadata) *model.JSONMessageHeaderV1 {
	return &model.JSONMessageHeaderV1{
		ID:          meta.ID,
		From:        stringutil.StringAddress(meta.From),
		To:          stringutil.StringAddressList(meta.To),
		Subject:     meta.Subject,
		Date:        meta.Date,
		PosixMillis: meta.Date.UnixMilli(),
		Size:        meta.Size,
	}
}

func partsToJSON(parts []message.PartSummary) []*model.JSONMessagePartV1 {
	out := make([]*model.JSONMessagePartV1, len(parts))
	for i, p := range parts {
		out[i] = &model.JSONMessagePartV1{
			Depth:       p.Depth,
			ContentType: p.ContentType,
			Disposition: p.Disposition,
			FileName:    p.FileName,
			Size:        p.Size,
		}
	}
	return out
}
