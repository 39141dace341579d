package tournamentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultFirestoreCollection = "tournaments"

// firestoreDoc is the stored shape. Firestore rejects integer map keys and
// nested arrays, so the roster travels as a JSON blob next to the version.
type firestoreDoc struct {
	Snapshot  string    `firestore:"snapshot"`
	Version   int64     `firestore:"version"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// FirestoreStore implements Store on a Firestore collection. Commit runs in
// a single-attempt Firestore transaction; retrying on contention is left to
// the caller's transact loop.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreClient connects to Firestore, or to the emulator when
// FIRESTORE_EMULATOR_HOST is set. An empty credentialsFile uses the ambient
// application default credentials.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	switch {
	case os.Getenv("FIRESTORE_EMULATOR_HOST") != "":
		opts = append(opts, option.WithoutAuthentication())
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = defaultFirestoreCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) doc(id tournamenttypes.TournamentID) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(string(id))
}

func (s *FirestoreStore) Create(ctx context.Context, t *tournamenttypes.Tournament) error {
	now := time.Now().UTC()
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now

	doc, err := encodeDoc(t)
	if err != nil {
		return err
	}
	if _, err := s.doc(t.ID).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create tournament document: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Read(ctx context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read tournament document: %w", err)
	}
	return decodeDoc(snap)
}

func (s *FirestoreStore) Commit(ctx context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error {
	ref := s.doc(next.ID)
	updatedAt := time.Now().UTC()

	staged := *next
	staged.Version = expectedVersion + 1
	staged.UpdatedAt = updatedAt
	doc, err := encodeDoc(&staged)
	if err != nil {
		return err
	}

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current firestoreDoc
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("failed to decode tournament document: %w", err)
		}
		if current.Version != expectedVersion {
			return ErrStaleSnapshot
		}
		return tx.Set(ref, doc)
	}, firestore.MaxAttempts(1))
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleSnapshot):
			return ErrStaleSnapshot
		case status.Code(err) == codes.NotFound:
			return ErrNotFound
		case status.Code(err) == codes.Aborted, status.Code(err) == codes.FailedPrecondition:
			return ErrStaleSnapshot
		}
		return fmt.Errorf("failed to commit tournament document: %w", err)
	}

	next.Version = staged.Version
	next.UpdatedAt = updatedAt
	return nil
}

func encodeDoc(t *tournamenttypes.Tournament) (*firestoreDoc, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tournament: %w", err)
	}
	return &firestoreDoc{Snapshot: string(raw), Version: t.Version, UpdatedAt: t.UpdatedAt}, nil
}

func decodeDoc(snap *firestore.DocumentSnapshot) (*tournamenttypes.Tournament, error) {
	var doc firestoreDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode tournament document: %w", err)
	}
	t := new(tournamenttypes.Tournament)
	if err := json.Unmarshal([]byte(doc.Snapshot), t); err != nil {
		return nil, fmt.Errorf("failed to decode tournament snapshot: %w", err)
	}
	t.Version = doc.Version
	return t, nil
}
