package matching

import "errors"

// ErrUnknownRequestType signals a programming error: a Request
// implementation the engine does not know how to dispatch. It should never
// occur in practice since order.Request is a closed sum defined in the same
// module.
var ErrUnknownRequestType = errors.New("matching: unknown order request type")

// ErrAssetPairMismatch signals a programming error: a caller submitted a
// request for a different asset pair than this Engine instance owns. The
// core never routes across pairs — the caller picked the wrong Engine.
var ErrAssetPairMismatch = errors.New("matching: request asset pair does not match engine")

// ErrInvalidAmendCancelTarget signals a programming error: an amend or
// cancel request named a Market order as its target. Market orders never
// rest, so they can never be amended or cancelled.
var ErrInvalidAmendCancelTarget = errors.New("matching: amend/cancel target cannot be a market order")
