package entity

import (
	"time"

	"shopify-ledger-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoConnectionDoc represents a tenant connection in MongoDB
type MongoConnectionDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	TenantID             *int64             `bson:"tenantId,omitempty"`
	InstallationID       string             `bson:"installationId,omitempty"`
	ShopDomain           string             `bson:"shopDomain,omitempty"`
	AccessToken          string             `bson:"accessToken,omitempty"`
	AccessTokenExpiresAt *time.Time         `bson:"accessTokenExpiresAt,omitempty"`
	ClientID             string             `bson:"clientId,omitempty"`
	ClientSecret         string             `bson:"clientSecret,omitempty"`
	GrantedScope         string             `bson:"grantedScope,omitempty"`
	AutoSync             bool               `bson:"autoSync"`
	CreatedAt            time.Time          `bson:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoConnectionDoc) ToDomain() *domain.TenantConnection {
	return &domain.TenantConnection{
		ID:                   d.ID.Hex(),
		TenantID:             d.TenantID,
		InstallationID:       d.InstallationID,
		ShopDomain:           d.ShopDomain,
		AccessToken:          d.AccessToken,
		AccessTokenExpiresAt: d.AccessTokenExpiresAt,
		ClientID:             d.ClientID,
		ClientSecret:         d.ClientSecret,
		GrantedScope:         d.GrantedScope,
		AutoSync:             d.AutoSync,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// MongoConnectionDocFromDomain converts a domain entity to a MongoDB document
func MongoConnectionDocFromDomain(connection *domain.TenantConnection) *MongoConnectionDoc {
	doc := &MongoConnectionDoc{
		TenantID:             connection.TenantID,
		InstallationID:       connection.InstallationID,
		ShopDomain:           connection.ShopDomain,
		AccessToken:          connection.AccessToken,
		AccessTokenExpiresAt: connection.AccessTokenExpiresAt,
		ClientID:             connection.ClientID,
		ClientSecret:         connection.ClientSecret,
		GrantedScope:         connection.GrantedScope,
		AutoSync:             connection.AutoSync,
		CreatedAt:            connection.CreatedAt,
		UpdatedAt:            connection.UpdatedAt,
	}

	if connection.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(connection.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}

// MongoInstallationDoc represents a shop installation in MongoDB
type MongoInstallationDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain  string             `bson:"shopDomain"`
	AccessToken string             `bson:"accessToken"`
	Scopes      string             `bson:"scopes,omitempty"`
	InstalledAt time.Time          `bson:"installedAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoInstallationDoc) ToDomain() *domain.ShopInstallation {
	return &domain.ShopInstallation{
		ID:          d.ID.Hex(),
		ShopDomain:  d.ShopDomain,
		AccessToken: d.AccessToken,
		Scopes:      d.Scopes,
		InstalledAt: d.InstalledAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoInstallationDocFromDomain converts a domain entity to a MongoDB document
func MongoInstallationDocFromDomain(installation *domain.ShopInstallation) *MongoInstallationDoc {
	doc := &MongoInstallationDoc{
		ShopDomain:  installation.ShopDomain,
		AccessToken: installation.AccessToken,
		Scopes:      installation.Scopes,
		InstalledAt: installation.InstalledAt,
		UpdatedAt:   installation.UpdatedAt,
	}

	if installation.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(installation.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
