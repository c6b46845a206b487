package main

import (
	"fmt"

	"github.com/xconnio/xconn-go"
	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/serializer"
)

func buildAuthenticator() auth.Authenticator {
	if ticket != "" {
		return auth.NewTicket(authID, ticket)
	}
	return auth.NewAnonymous(authID)
}

func serializerID(name string) (serializer.ID, error) {
	switch name {
	case "json":
		return serializer.IDJSON, nil
	case "msgpack":
		return serializer.IDMsgPack, nil
	case "cbor":
		return serializer.IDCBOR, nil
	default:
		return 0, fmt.Errorf("unknown serializer %q", name)
	}
}

func connectSession() (*xconn.Session, error) {
	id, err := serializerID(serializerName)
	if err != nil {
		return nil, err
	}
	return xconn.Connect(peerURL, realm, buildAuthenticator(), xconn.WithSerializer(id))
}
