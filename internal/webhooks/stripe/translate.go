package stripewebhook

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/packfinderz-settlement/internal/settlement"
	pkgerrors "github.com/angelmondragon/packfinderz-settlement/pkg/errors"
)

// Metadata keys set on Stripe objects at checkout and onboarding.
const (
	metaOrderID  = "order_id"
	metaSellerID = "seller_id"
)

var eventTypes = map[stripe.EventType]settlement.EventType{
	stripe.EventTypePaymentIntentSucceeded:     settlement.EventPaymentSucceeded,
	stripe.EventTypePaymentIntentPaymentFailed: settlement.EventPaymentFailed,
	stripe.EventTypeTransferCreated:            settlement.EventTransferCreated,
	stripe.EventTypeTransferReversed:           settlement.EventTransferReversed,
	stripe.EventTypePayoutFailed:               settlement.EventPayoutFailed,
	stripe.EventTypeChargeRefunded:             settlement.EventChargeRefunded,
	stripe.EventTypeChargeDisputeCreated:       settlement.EventDisputeOpened,
	stripe.EventTypeChargeDisputeClosed:        settlement.EventDisputeClosed,
	stripe.EventTypeAccountUpdated:             settlement.EventAccountUpdated,
}

// Translate maps a verified Stripe event onto the processor-neutral event.
// Types outside the settlement set come back with only ID and RawType.
func Translate(event stripe.Event) (settlement.Event, error) {
	out := settlement.Event{
		ID:      event.ID,
		RawType: string(event.Type),
	}
	if event.Created > 0 {
		out.OccurredAt = time.Unix(event.Created, 0).UTC()
	}
	kind, ok := eventTypes[event.Type]
	if !ok {
		return out, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	out.Type = kind

	var err error
	switch kind {
	case settlement.EventPaymentSucceeded, settlement.EventPaymentFailed:
		out.Payment, err = paymentData(event.Data.Raw)
	case settlement.EventTransferCreated, settlement.EventTransferReversed:
		out.Transfer, err = transferData(event.Data.Raw)
	case settlement.EventPayoutFailed:
		out.Payout, err = payoutData(event.Data.Raw, event.Account)
	case settlement.EventChargeRefunded:
		out.Charge, err = chargeData(event.Data.Raw)
	case settlement.EventDisputeOpened, settlement.EventDisputeClosed:
		out.Dispute, err = disputeData(event.Data.Raw)
	case settlement.EventAccountUpdated:
		out.Account, err = accountData(event.Data.Raw)
	}
	if err != nil {
		return out, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode "+string(event.Type))
	}
	return out, nil
}

func paymentData(raw json.RawMessage) (*settlement.PaymentData, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, err
	}
	data := &settlement.PaymentData{
		OrderID:         metaUUID(pi.Metadata, metaOrderID),
		PaymentIntentID: pi.ID,
		AmountCents:     pi.AmountReceived,
	}
	if data.AmountCents == 0 {
		data.AmountCents = pi.Amount
	}
	if pi.LatestCharge != nil {
		data.ChargeID = pi.LatestCharge.ID
	}
	if pi.ApplicationFeeAmount > 0 {
		fee := pi.ApplicationFeeAmount
		data.FeeCents = &fee
	}
	if pi.LastPaymentError != nil {
		data.FailureMessage = pi.LastPaymentError.Msg
	}
	return data, nil
}

func transferData(raw json.RawMessage) (*settlement.TransferData, error) {
	var tr stripe.Transfer
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, err
	}
	data := &settlement.TransferData{
		TransferID:    tr.ID,
		SellerID:      metaUUID(tr.Metadata, metaSellerID),
		OrderID:       metaUUID(tr.Metadata, metaOrderID),
		AmountCents:   tr.Amount,
		ReversedCents: tr.AmountReversed,
		Currency:      string(tr.Currency),
	}
	if tr.Destination != nil {
		data.DestinationAccount = tr.Destination.ID
	}
	return data, nil
}

func payoutData(raw json.RawMessage, account string) (*settlement.PayoutData, error) {
	var po stripe.Payout
	if err := json.Unmarshal(raw, &po); err != nil {
		return nil, err
	}
	return &settlement.PayoutData{
		PayoutID:       po.ID,
		Account:        account,
		SellerID:       metaUUID(po.Metadata, metaSellerID),
		AmountCents:    po.Amount,
		FailureCode:    string(po.FailureCode),
		FailureMessage: po.FailureMessage,
	}, nil
}

func chargeData(raw json.RawMessage) (*settlement.ChargeData, error) {
	var ch stripe.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, err
	}
	data := &settlement.ChargeData{
		OrderID:             metaUUID(ch.Metadata, metaOrderID),
		ChargeID:            ch.ID,
		AmountCents:         ch.Amount,
		AmountRefundedCents: ch.AmountRefunded,
		FullyRefunded:       ch.Refunded,
	}
	if ch.PaymentIntent != nil {
		data.PaymentIntentID = ch.PaymentIntent.ID
	}
	return data, nil
}

func disputeData(raw json.RawMessage) (*settlement.DisputeData, error) {
	var dp stripe.Dispute
	if err := json.Unmarshal(raw, &dp); err != nil {
		return nil, err
	}
	data := &settlement.DisputeData{
		DisputeID:   dp.ID,
		OrderID:     metaUUID(dp.Metadata, metaOrderID),
		AmountCents: dp.Amount,
		Reason:      string(dp.Reason),
		Status:      string(dp.Status),
	}
	if dp.PaymentIntent != nil {
		data.PaymentIntentID = dp.PaymentIntent.ID
	}
	if dp.Charge != nil {
		data.ChargeID = dp.Charge.ID
		if data.OrderID == uuid.Nil {
			data.OrderID = metaUUID(dp.Charge.Metadata, metaOrderID)
		}
	}
	return data, nil
}

func accountData(raw json.RawMessage) (*settlement.AccountData, error) {
	var acct stripe.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, err
	}
	data := &settlement.AccountData{
		AccountID:        acct.ID,
		SellerID:         metaUUID(acct.Metadata, metaSellerID),
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
	var disabled string
	if acct.Requirements != nil {
		data.Requirements = append(data.Requirements, acct.Requirements.CurrentlyDue...)
		disabled = string(acct.Requirements.DisabledReason)
	}
	data.VerificationStatus = verificationStatus(acct.DetailsSubmitted, disabled, len(data.Requirements))
	return data, nil
}

func verificationStatus(submitted bool, disabledReason string, due int) string {
	switch {
	case disabledReason != "":
		return "restricted"
	case due > 0:
		return "pending"
	case submitted:
		return "verified"
	default:
		return "unverified"
	}
}

func metaUUID(meta map[string]string, key string) uuid.UUID {
	if meta == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(meta[key])
	if err != nil {
		return uuid.Nil
	}
	return id
}
