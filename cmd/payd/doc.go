/*
The payd daemon serves the mobile-money payment lifecycle for invoices.

Usage:
  payd

  Flags understood by payd:
    -c          Path to config file name.
                Alternatively the environment var $PAYDCFG can be used to set
                the configuration file name.

  Example:
    payd -c /etc/payd/payd.config.json
*/
package main
