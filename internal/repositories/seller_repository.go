package repositories

import (
	"database/sql"
	"errors"

	"sales-reconciliation-service/internal/models"
)

var ErrSellerNotFound = errors.New("seller not found")

type SellerRepository interface {
	// GetView returns the seller with its optic and, when the optic is a
	// branch, the parent (matriz) optic.
	GetView(sellerID int64) (*models.SellerView, error)
}

type sellerRepository struct {
	db *sql.DB
}

func NewSellerRepository(db *sql.DB) SellerRepository {
	return &sellerRepository{db: db}
}

func (r *sellerRepository) GetView(sellerID int64) (*models.SellerView, error) {
	seller := &models.Seller{}
	optic := &models.Optic{}
	query := `
		SELECT sl.id, sl.name, sl.email, sl.optic_id,
		       o.id, o.trade_name, o.cnpj, o.parent_optic_id
		FROM sellers sl
		INNER JOIN optics o ON o.id = sl.optic_id
		WHERE sl.id = ?
	`
	err := r.db.QueryRow(query, sellerID).Scan(
		&seller.ID,
		&seller.Name,
		&seller.Email,
		&seller.OpticID,
		&optic.ID,
		&optic.TradeName,
		&optic.CNPJ,
		&optic.ParentOpticID,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, err
	}

	view := &models.SellerView{Seller: seller, Optic: optic}
	if !optic.ParentOpticID.Valid {
		return view, nil
	}

	parent := &models.Optic{}
	parentQuery := `
		SELECT id, trade_name, cnpj, parent_optic_id
		FROM optics
		WHERE id = ?
	`
	err = r.db.QueryRow(parentQuery, optic.ParentOpticID.Int64).Scan(
		&parent.ID,
		&parent.TradeName,
		&parent.CNPJ,
		&parent.ParentOpticID,
	)
	if err == sql.ErrNoRows {
		// Dangling parent reference: validate against the optic alone.
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.ParentOptic = parent
	return view, nil
}
