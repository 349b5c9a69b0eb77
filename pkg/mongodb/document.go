package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

// BSON document shapes. Related entities are embedded as value snapshots:
// a later update to the source record does not rewrite snapshots already
// embedded elsewhere. That staleness is part of the data model, not a bug.

type categoryDoc struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

type clientDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Username    string             `bson:"username"`
	Firstname   string             `bson:"firstname"`
	Lastname    string             `bson:"lastname"`
	PhoneNumber string             `bson:"phoneNumber"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
}

type advertisingDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Measurement string               `bson:"measurement"`
	UnitPrice   primitive.Decimal128 `bson:"unitPrice"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
	Category    *categoryDoc         `bson:"category"`
}

type lineItemDoc struct {
	Advertising *advertisingDoc `bson:"advertising"`
	Quantity    int             `bson:"quantity"`
}

type programDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	CampaignTitle   string             `bson:"campaignTitle"`
	Description     string             `bson:"description"`
	CreatedAt       time.Time          `bson:"createdAt"`
	Client          *clientDoc         `bson:"client"`
	AdvertisingList []lineItemDoc      `bson:"advertisingList"`
}

func (d *categoryDoc) toEntity() *entity.Category {
	return &entity.Category{ID: d.ID.Hex(), Name: d.Name}
}

func (d *clientDoc) toEntity() *entity.Client {
	return &entity.Client{
		ID:          d.ID.Hex(),
		Username:    d.Username,
		Firstname:   d.Firstname,
		Lastname:    d.Lastname,
		PhoneNumber: d.PhoneNumber,
		Email:       d.Email,
		Password:    d.Password,
	}
}

func newClientDoc(c *entity.Client) *clientDoc {
	return &clientDoc{
		Username:    c.Username,
		Firstname:   c.Firstname,
		Lastname:    c.Lastname,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		Password:    c.Password,
	}
}

// newAdvertisingDoc maps an advertising for writing, without an _id. The
// category snapshot must carry a decodable object ID.
func newAdvertisingDoc(a *entity.Advertising) (*advertisingDoc, error) {
	if a.Category == nil || a.Category.ID == "" {
		return nil, fmt.Errorf("%w: advertising %q has no category", repository.ErrMissingReference, a.Name)
	}
	categoryID, err := parseObjectID(a.Category.ID)
	if err != nil {
		return nil, err
	}
	price, err := primitive.ParseDecimal128(a.UnitPrice.String())
	if err != nil {
		return nil, fmt.Errorf("encode unit price %q: %w", a.UnitPrice.String(), err)
	}
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	return &advertisingDoc{
		Name:        a.Name,
		Description: a.Description,
		Measurement: a.Measurement,
		UnitPrice:   price,
		UpdatedAt:   updatedAt,
		Category:    &categoryDoc{ID: categoryID, Name: a.Category.Name},
	}, nil
}

// toEntity reconstructs an advertising from its document. A missing embedded
// category is a data-integrity error, never defaulted.
func (d *advertisingDoc) toEntity() (*entity.Advertising, error) {
	if d.Category == nil {
		return nil, fmt.Errorf("%w: advertising %s has no embedded category", repository.ErrCorruptRecord, d.ID.Hex())
	}
	price, err := decimal.NewFromString(d.UnitPrice.String())
	if err != nil {
		return nil, fmt.Errorf("%w: advertising %s unit price %q", repository.ErrCorruptRecord, d.ID.Hex(), d.UnitPrice.String())
	}
	return &entity.Advertising{
		ID:          d.ID.Hex(),
		Category:    d.Category.toEntity(),
		Name:        d.Name,
		Measurement: d.Measurement,
		UnitPrice:   price,
		Description: d.Description,
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

// toEntity reconstructs a program from its document. A missing embedded
// client or advertising is a data-integrity error.
func (d *programDoc) toEntity() (*entity.Program, error) {
	if d.Client == nil {
		return nil, fmt.Errorf("%w: program %s has no embedded client", repository.ErrCorruptRecord, d.ID.Hex())
	}
	p := &entity.Program{
		ID:            d.ID.Hex(),
		Client:        d.Client.toEntity(),
		CampaignTitle: d.CampaignTitle,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt.UTC(),
	}
	for _, item := range d.AdvertisingList {
		if item.Advertising == nil {
			return nil, fmt.Errorf("%w: program %s has an empty line item", repository.ErrCorruptRecord, d.ID.Hex())
		}
		ad, err := item.Advertising.toEntity()
		if err != nil {
			return nil, err
		}
		p.Advertisings = append(p.Advertisings, entity.LineItem{Advertising: ad, Quantity: item.Quantity})
	}
	return p, nil
}
