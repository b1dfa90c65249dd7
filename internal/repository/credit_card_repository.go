package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

// CreditCardRepo keeps at most one card per user.
type CreditCardRepo struct{ DB *sql.DB }

func NewCreditCardRepo(db *sql.DB) *CreditCardRepo { return &CreditCardRepo{DB: db} }

var _ reservation.PaymentInstruments = (*CreditCardRepo)(nil)

// Save registers the card, replacing any card already on file.
func (r *CreditCardRepo) Save(ctx context.Context, card model.CreditCard) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO credit_cards (user_id, card_type, name, number, expiry_date)
         VALUES (?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE card_type = VALUES(card_type), name = VALUES(name),
                                 number = VALUES(number), expiry_date = VALUES(expiry_date)`,
		card.UserID, string(card.Type), card.Name, card.Number, card.ExpiryDate)
	return err
}

func (r *CreditCardRepo) Get(ctx context.Context, userID uint64) (model.CreditCard, bool, error) {
	var c model.CreditCard
	var typ string
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, card_type, name, number, expiry_date FROM credit_cards WHERE user_id = ?",
		userID).Scan(&c.UserID, &typ, &c.Name, &c.Number, &c.ExpiryDate)
	ok, err := found(err)
	if !ok || err != nil {
		return model.CreditCard{}, false, err
	}
	c.Type = model.CardType(typ)
	return c, true, nil
}

// HasCreditCard implements reservation.PaymentInstruments.
func (r *CreditCardRepo) HasCreditCard(ctx context.Context, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM credit_cards WHERE user_id = ?", userID).Scan(&one)
	return found(err)
}
