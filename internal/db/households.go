package db

import (
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/model"
)

func (s *pgStore) CreateHousehold(headName, address string, email, phone *string) (model.Household, error) {
	var h model.Household
	const q = `
	INSERT INTO households (head_name, address, contact_email, contact_phone, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, true, now(), now())
	RETURNING id, head_name, address, contact_email, contact_phone, is_active, created_at, updated_at;`
	if err := s.db.Get(&h, q, headName, address, email, phone); err != nil {
		log.Error().Err(err).Msg("CreateHousehold failed")
		return model.Household{}, err
	}
	return h, nil
}

func (s *pgStore) ListHouseholds() ([]model.Household, error) {
	var out []model.Household
	const q = `
	SELECT id, head_name, address, contact_email, contact_phone, is_active, created_at, updated_at
	  FROM households
	 ORDER BY id;`
	if err := s.db.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("ListHouseholds failed")
		return nil, err
	}
	return out, nil
}

// ListActiveHouseholds returns the recipient base for schedules targeting all
// households.
func (s *pgStore) ListActiveHouseholds() ([]model.Household, error) {
	var out []model.Household
	const q = `
	SELECT id, head_name, address, contact_email, contact_phone, is_active, created_at, updated_at
	  FROM households
	 WHERE is_active = true
	 ORDER BY id;`
	if err := s.db.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("ListActiveHouseholds failed")
		return nil, err
	}
	return out, nil
}

// HouseholdsByIDs resolves a specific-household selection. Inactive and
// unknown ids are silently dropped.
func (s *pgStore) HouseholdsByIDs(ids []int64) ([]model.Household, error) {
	var out []model.Household
	const q = `
	SELECT id, head_name, address, contact_email, contact_phone, is_active, created_at, updated_at
	  FROM households
	 WHERE is_active = true
	   AND id = ANY($1)
	 ORDER BY id;`
	if err := s.db.Select(&out, q, pq.Int64Array(ids)); err != nil {
		log.Error().Err(err).Msg("HouseholdsByIDs failed")
		return nil, err
	}
	return out, nil
}
