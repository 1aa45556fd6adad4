package remote

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visao360/ledger/internal/model"
)

const userDataCollection = "user_data"

// firestoreRow is the document layout: the snapshot travels as one JSON blob
// next to its watermark, so the row stays opaque to queries except for the
// conflict-resolution signal.
type firestoreRow struct {
	Content     []byte `firestore:"content"`
	LastUpdated int64  `firestore:"lastUpdated"`
}

// FirestoreStore implements Store on one Firestore document per principal,
// with the document snapshot listener as the realtime push subscription.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed remote store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(principalID string) *firestore.DocumentRef {
	return s.client.Collection(userDataCollection).Doc(principalID)
}

func (s *FirestoreStore) Upsert(ctx context.Context, principalID string, state model.GlobalState) error {
	data, err := model.EncodeState(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.doc(principalID).Set(ctx, firestoreRow{
		Content:     data,
		LastUpdated: state.LastUpdated,
	})
	if err != nil {
		return fmt.Errorf("upsert user_data/%s: %w", principalID, err)
	}
	return nil
}

func (s *FirestoreStore) Fetch(ctx context.Context, principalID string) (model.GlobalState, error) {
	snap, err := s.doc(principalID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.GlobalState{}, ErrNotFound
	}
	if err != nil {
		return model.GlobalState{}, fmt.Errorf("fetch user_data/%s: %w", principalID, err)
	}
	return decodeFirestoreRow(snap)
}

func (s *FirestoreStore) FetchAll(ctx context.Context) ([]Row, error) {
	it := s.client.Collection(userDataCollection).Documents(ctx)
	defer it.Stop()

	var rows []Row
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list user_data: %w", err)
		}
		state, err := decodeFirestoreRow(snap)
		if err != nil {
			// A single corrupt row must not hide the rest.
			continue
		}
		rows = append(rows, Row{PrincipalID: snap.Ref.ID, State: state, LastUpdated: state.LastUpdated})
	}
	return rows, nil
}

func (s *FirestoreStore) Subscribe(ctx context.Context, principalID string) (<-chan model.GlobalState, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	snaps := s.doc(principalID).Snapshots(subCtx)

	ch := make(chan model.GlobalState, 8)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			snaps.Stop()
		})
	}

	go func() {
		defer close(ch)
		for {
			snap, err := snaps.Next()
			if err != nil {
				return
			}
			if !snap.Exists() {
				continue
			}
			state, err := decodeFirestoreRow(snap)
			if err != nil {
				continue
			}
			select {
			case ch <- state:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return ch, stop, nil
}

func decodeFirestoreRow(snap *firestore.DocumentSnapshot) (model.GlobalState, error) {
	var row firestoreRow
	if err := snap.DataTo(&row); err != nil {
		return model.GlobalState{}, fmt.Errorf("parse user_data row: %w", err)
	}
	state, err := model.DecodeState(row.Content)
	if err != nil {
		return model.GlobalState{}, fmt.Errorf("decode state content: %w", err)
	}
	// The column watermark is authoritative for rows written by older
	// clients that bumped it outside the blob.
	if row.LastUpdated > state.LastUpdated {
		state.LastUpdated = row.LastUpdated
	}
	return state, nil
}
