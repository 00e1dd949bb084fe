package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is a medical report uploaded by a patient. BlobID is the blob-store
// public id, kept so the stored file can be removed when the report is.
type Report struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PatientID   primitive.ObjectID `json:"patientId" bson:"patient_id"`
	Filename    string             `json:"filename" bson:"filename"`
	FileURL     string             `json:"fileUrl" bson:"file_url"`
	BlobID      string             `json:"blobId" bson:"blob_id"`
	ContentType string             `json:"contentType" bson:"content_type"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}
