// Package keys generates textbook RSA key parameters and signs digest integers.
//
// There is no padding and no constant-time arithmetic. It is meant for
// exposition and for producing witnesses for the verification circuit, not
// for protecting anything.
//
//	kp, err := keys.DeriveKeyParameters(1024)
//	if err != nil {
//	    return err
//	}
//	sig, err := kp.Sign(digest)
package keys
