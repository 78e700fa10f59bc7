package model

// Dimensions is the pixel size of an image attachment.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Media is one attachment of a note. Identity is LocalID; the list a note
// carries is ordered.
type Media struct {
	LocalID         string      `json:"localId"`
	RemoteID        *string     `json:"remoteId,omitempty"`
	LocalURL        *string     `json:"localUrl,omitempty"`
	MimeType        string      `json:"mimeType"`
	AltText         *string     `json:"altText,omitempty"`
	ImageDimensions *Dimensions `json:"imageDimensions,omitempty"`
	LastModified    int64       `json:"lastModified"`
}

// ID returns the local id.
func (m Media) ID() string { return m.LocalID }

// Clone returns a copy that shares no pointer fields with m.
func (m Media) Clone() Media {
	m.RemoteID = clonePtr(m.RemoteID)
	m.LocalURL = clonePtr(m.LocalURL)
	m.AltText = clonePtr(m.AltText)
	m.ImageDimensions = clonePtr(m.ImageDimensions)
	return m
}

// CloneMedia deep-copies a media list. A nil list stays nil.
func CloneMedia(media []Media) []Media {
	if media == nil {
		return nil
	}
	out := make([]Media, len(media))
	for i, m := range media {
		out[i] = m.Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
