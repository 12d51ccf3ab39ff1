// Package rpc declares the gRPC contract between PairJournal clients and the
// key server.
//
// The services are declared by hand on top of the protobuf well-known types,
// so no generated code is involved:
//
//	pairjournal.v1.KeyStore/Get(StringValue path) -> BytesValue
//	pairjournal.v1.KeyStore/Put(Struct{path, value}) -> Empty
//	pairjournal.v1.KeyStore/Delete(StringValue path) -> Empty
//	pairjournal.v1.Identity/Register(Struct{email, password}) -> Struct{account_id}
//	pairjournal.v1.Identity/SignIn(Struct{email, password}) -> Struct{account_id, email, access_token}
//	pairjournal.v1.Identity/ChangePassword(Struct{old_password, new_password}) -> Empty
//
// Put carries the value base64-encoded (Struct has no bytes kind). The access
// token travels in the access_token metadata header. Errors cross the wire as
// status codes; ToStatus and FromStatus translate them to and from the
// sentinels in package common.
package rpc
