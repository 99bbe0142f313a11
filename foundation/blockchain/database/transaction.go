package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
	"github.com/ardanlabs/gossipchain/foundation/validate"
)

// SubmitPrefix starts every transaction submission on the wire.
const SubmitPrefix = "Transaction:"

// ErrMalformedTx is returned when a transaction payload does not parse into
// the expected set of fields.
var ErrMalformedTx = errors.New("malformed transaction")

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	ID        string    `json:"id" validate:"required"`       // Digest of sender, receiver, amount and timestamp.
	Sender    string    `json:"sender" validate:"required"`   // Owner paying the amount.
	Receiver  string    `json:"receiver" validate:"required"` // Owner receiving the amount.
	Amount    string    `json:"amount" validate:"required"`   // Decimal amount kept as submitted.
	Fee       float64   `json:"fee" validate:"gte=0"`         // Fee offered to have this transaction mined first.
	TimeStamp time.Time `json:"timestamp"`                    // Time the transaction was created or received.
}

// NewTx constructs a new transaction stamped with the current time.
func NewTx(sender string, receiver string, amount string, fee float64) (Tx, error) {
	now := time.Now()

	tx := Tx{
		ID:        TxID(sender, receiver, amount, now),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Fee:       fee,
		TimeStamp: now,
	}

	if err := tx.Validate(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// TxID returns the content digest identifying a transaction.
func TxID(sender string, receiver string, amount string, timeStamp time.Time) string {
	return digest.Hash(fmt.Sprintf("%s,%s,%s,%s", sender, receiver, amount, FormatTimeStamp(timeStamp)))
}

// FormatTimeStamp renders a time as fractional unix seconds, the form used
// inside every digest.
func FormatTimeStamp(t time.Time) string {
	secs := float64(t.UnixMicro()) / 1e6
	return strconv.FormatFloat(secs, 'f', -1, 64)
}

// ParseSubmission parses a wallet submission of the form
// "Transaction: sender,receiver,amount,fee,id". The submitted id is kept as
// the identity of the transaction and the timestamp is the time of receipt.
func ParseSubmission(payload string) (Tx, error) {
	if !strings.HasPrefix(payload, SubmitPrefix) {
		return Tx{}, fmt.Errorf("%w: missing %q prefix", ErrMalformedTx, SubmitPrefix)
	}

	return ParseFields(strings.TrimPrefix(payload, SubmitPrefix))
}

// ParseFields parses the comma separated "sender,receiver,amount,fee,id"
// form. Whitespace around each field is ignored and fields past the fifth
// are not considered.
func ParseFields(s string) (Tx, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) < 5 {
		return Tx{}, fmt.Errorf("%w: got %d fields, exp 5", ErrMalformedTx, len(fields))
	}

	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if _, err := strconv.ParseFloat(fields[2], 64); err != nil {
		return Tx{}, fmt.Errorf("%w: amount: %s", ErrMalformedTx, err)
	}

	fee, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Tx{}, fmt.Errorf("%w: fee: %s", ErrMalformedTx, err)
	}

	tx := Tx{
		Sender:    fields[0],
		Receiver:  fields[1],
		Amount:    fields[2],
		Fee:       fee,
		ID:        fields[4],
		TimeStamp: time.Now(),
	}

	if err := tx.Validate(); err != nil {
		return Tx{}, fmt.Errorf("%w: %s", ErrMalformedTx, err)
	}

	return tx, nil
}

// Validate checks the transaction fields.
func (tx Tx) Validate() error {
	return validate.Check(tx)
}

// Fields returns the "sender,receiver,amount,fee,id" form of the transaction.
func (tx Tx) Fields() string {
	return fmt.Sprintf("%s,%s,%s,%s,%s", tx.Sender, tx.Receiver, tx.Amount, strconv.FormatFloat(tx.Fee, 'f', -1, 64), tx.ID)
}

// Payload returns the submission form of the transaction.
func (tx Tx) Payload() string {
	return SubmitPrefix + " " + tx.Fields()
}

// Hash implements the merkle Hashable interface. A transaction's leaf in
// the merkle tree is its id.
func (tx Tx) Hash() string {
	return tx.ID
}

// Equals implements the merkle Hashable interface.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID
}

// String implements the Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s->%s:%s:%v", tx.ID, tx.Sender, tx.Receiver, tx.Amount, tx.Fee)
}
